package service

import (
	"context"
	"fmt"
	"time"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
)

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

type MonthlyLeads struct {
	Month string `json:"month"`
	Leads int    `json:"leads"`
}

type Share struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

type DashboardSummary struct {
	TotalCalls   int            `json:"totalCalls"`
	TotalLeads   int            `json:"totalLeads"`
	FollowUps    int            `json:"followUps"`
	MonthlyLeads []MonthlyLeads `json:"monthlyLeads"`
	LeadStatus   []Share        `json:"leadStatus"`
}

type Invoice struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Status string `json:"status"`
}

type Plan struct {
	Name            string `json:"name"`
	MonthlyFee      string `json:"monthlyFee"`
	CallsIncluded   int    `json:"callsIncluded"`
	NextBillingDate string `json:"nextBillingDate"`
}

type BillingSummary struct {
	Plan     Plan      `json:"plan"`
	Invoices []Invoice `json:"invoices"`
}

type ReportingService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	CallHistoryRepo repository.CallHistoryRepositoryInterface
}

// GetCampaignDetailsWithStats returns the campaign with call outcomes counted
// by status. "total" is always present.
func (s *ReportingService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	calls, err := s.CallHistoryRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{
		"total":                        0,
		model.CallStatusLeadInterested: 0,
		model.CallStatusNotInterested:  0,
		model.CallStatusFollowUp:       0,
	}
	for _, h := range calls {
		stats[h.Status]++
		stats["total"]++
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// Dashboard returns the sample aggregates shown on the dashboard.
func (s *ReportingService) Dashboard(ctx context.Context) DashboardSummary {
	return DashboardSummary{
		TotalCalls: 1247,
		TotalLeads: 349,
		FollowUps:  124,
		MonthlyLeads: []MonthlyLeads{
			{"Jan", 45}, {"Feb", 52}, {"Mar", 38}, {"Apr", 65},
			{"May", 48}, {"Jun", 59}, {"Jul", 42},
		},
		LeadStatus: []Share{
			{"Hot Leads", 25}, {"Interested", 35}, {"Not Connected", 15},
			{"Not Interested", 10}, {"Follow Up", 20}, {"Pending", 15},
		},
	}
}

// Billing returns the sample plan and invoice list.
func (s *ReportingService) Billing(ctx context.Context) BillingSummary {
	invoices := make([]Invoice, 0, 5)
	for m := time.January; m <= time.May; m++ {
		status := "Paid"
		if m == time.May {
			status = "Pending"
		}
		invoices = append(invoices, Invoice{
			ID:     fmt.Sprintf("INV-%03d", int(m)),
			Date:   time.Date(2023, m, 1, 0, 0, 0, 0, time.UTC).Format("Jan 02, 2006"),
			Amount: "INR 3000",
			Status: status,
		})
	}
	return BillingSummary{
		Plan: Plan{
			Name:            "Pro",
			MonthlyFee:      "INR 3000",
			CallsIncluded:   2000,
			NextBillingDate: "June 01, 2023",
		},
		Invoices: invoices,
	}
}
