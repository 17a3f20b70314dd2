package model

// VoiceTypes are the voice labels offered by the campaign editor.
// voiceType on a campaign is any non-empty label; this list is advisory.
var VoiceTypes = []string{
	"Indian Male Voice",
	"Indian Female Voice",
	"British Male Voice",
	"British Female Voice",
	"American Male Voice",
	"American Female Voice",
}
