package seed

import "github.com/unclebandit/voicecampaign-backend/internal/model"

// DemoUsername and DemoPassword are the credentials of the demo account.
const (
	DemoUsername = "Shiva Chintaluru"
	DemoPassword = "password123"
)

func demoCampaigns(ownerID int) []model.CampaignInput {
	owner := model.IntPtr(ownerID)
	c := func(name, script, objective, guidelines, callFlow, voice string, max int, active bool) model.CampaignInput {
		return model.CampaignInput{
			Name:         name,
			Script:       script,
			Objective:    model.StringPtr(objective),
			Guidelines:   model.StringPtr(guidelines),
			CallFlow:     model.StringPtr(callFlow),
			VoiceType:    voice,
			MaxCallCount: max,
			Status:       model.BoolPtr(active),
			CreatedBy:    owner,
		}
	}
	return []model.CampaignInput{
		c("Construction Campaign",
			"Hello, I'm calling about a luxury construction project.",
			"Schedule site visits for new construction project.",
			"• Greet professionally\n• Focus on project highlights\n• Schedule site visits",
			"1. Introduction\n2. Project overview\n3. Schedule visit",
			"Indian Male Voice", 1000, true),
		c("Premium Apartment Sales",
			"Hi, I'm calling about our premium apartment complex.",
			"Generate leads for luxury apartments.",
			"• Highlight amenities\n• Discuss location benefits\n• Offer virtual tours",
			"1. Greeting\n2. Features overview\n3. Tour booking",
			"Indian Female Voice", 800, true),
		c("Villa Project Launch",
			"Hello, I'm reaching out about our new villa project launch.",
			"Pre-launch bookings for villa project.",
			"• Emphasize exclusivity\n• Discuss early-bird offers\n• Set up meetings",
			"1. Introduction\n2. Project brief\n3. Booking process",
			"British Male Voice", 500, false),
		c("Investment Property",
			"Hi, calling about an investment opportunity in real estate.",
			"Target potential investors for property.",
			"• Focus on ROI\n• Explain payment plans\n• Schedule consultations",
			"1. Greeting\n2. Investment details\n3. Meeting setup",
			"American Male Voice", 600, true),
		c("Waterfront Residences",
			"Hello, I'm calling about our waterfront property project.",
			"Promote waterfront luxury homes.",
			"• Highlight waterfront features\n• Discuss unique amenities\n• Book site visits",
			"1. Introduction\n2. Location benefits\n3. Visit scheduling",
			"Indian Male Voice", 700, true),
		c("Smart Home Project",
			"Hi, I'm calling about our smart home development.",
			"Promote tech-enabled luxury homes.",
			"• Explain smart features\n• Discuss automation\n• Demo scheduling",
			"1. Greeting\n2. Tech overview\n3. Demo booking",
			"American Female Voice", 400, false),
		c("Golf View Apartments",
			"Hello, calling about our golf-view luxury apartments.",
			"Sell golf course facing properties.",
			"• Emphasize golf amenities\n• Discuss lifestyle\n• Arrange viewings",
			"1. Introduction\n2. Golf benefits\n3. Visit booking",
			"British Female Voice", 300, true),
		c("Eco-Friendly Homes",
			"Hi, I'm calling about our sustainable living project.",
			"Promote eco-friendly residential project.",
			"• Highlight sustainability\n• Discuss green features\n• Schedule tours",
			"1. Greeting\n2. Green features\n3. Tour booking",
			"Indian Female Voice", 450, true),
		c("Senior Living Complex",
			"Hello, I'm calling about our senior living community.",
			"Promote senior-friendly homes.",
			"• Focus on accessibility\n• Discuss medical facilities\n• Arrange visits",
			"1. Introduction\n2. Facility overview\n3. Visit scheduling",
			"British Male Voice", 250, false),
	}
}

const loanSummary = "The call successfully concluded with Arianna expressing her need for loan and asking for more details on it. The details have been sent over the email."

type callRecord struct {
	name, email, phone, status, summary string
}

var demoCallRecords = []callRecord{
	{"Amit Khanna", "amit.khanna@gmail.com", "+91 98765 43210", model.CallStatusLeadInterested, loanSummary},
	{"Priya Mehta", "priya.mehta@yahoo.com", "+91 99887 76543", model.CallStatusNotInterested, "Customer stated they are not interested in the property at this time."},
	{"Rohit Sharma", "rohit.sharma@hotmail.com", "+91 97654 32109", model.CallStatusLeadInterested, "Rohit showed strong interest in the premium apartment features and requested a site visit."},
	{"Sneha Iyer", "sneha.iyer@gmail.com", "+91 98760 98765", model.CallStatusNotInterested, "Currently looking for properties in a different location."},
	{"Vikas Nair", "vikas.nair@hotmail.com", "+91 98989 12345", model.CallStatusFollowUp, "Interested but needs time to discuss with family. Follow up in a week."},
	{"Anjali Verma", "anjali.verma@gmail.com", "+91 99007 65432", model.CallStatusNotInterested, "Already purchased a property recently."},
	{"Karan Malhotra", "karan.malhotra@gmail.com", "+91 98123 87654", model.CallStatusNotInterested, "Budget constraints, looking for something more affordable."},
	{"Riya Kapoor", "riya.kapoor@outlook.com", "+91 98765 12340", model.CallStatusLeadInterested, loanSummary},
	{"Suresh Patil", "suresh@yahoo.com", "+91 98234 56789", model.CallStatusNotInterested, "Not interested in relocating at this time."},
	{"Arjun Singh", "arjun.singh@rediffmail.com", "+91 99345 67890", model.CallStatusNotInterested, "Preferred different amenities than what was offered."},
	{"Neha Choudhury", "neha.ch@yahoo.com", "+91 98456 78901", model.CallStatusNotInterested, "Not interested at this time."},
	{"Manish Reddy", "manish.reddy@gmail.com", "+91 97678 23456", model.CallStatusFollowUp, "Was busy, requested to call back next week."},
	{"Deepika Joshi", "deepika.joshi@outlook.com", "+91 98231 45678", model.CallStatusNotInterested, "Looking for a different type of property."},
	{"Sanjay Gupta", "sanjay.gupta@hotmail.com", "+91 97785 43219", model.CallStatusFollowUp, "Requested more details about floor plans via email."},
}
