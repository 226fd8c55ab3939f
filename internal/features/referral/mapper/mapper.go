package mapper

import (
	"referral-tracker-backend/internal/features/referral/models"
)

func achievedLabel(achieved bool) string {
	if achieved {
		return "Yes"
	}
	return "No"
}

// ToMilestoneResponses never returns nil so an empty list encodes as [].
func ToMilestoneResponses(statuses []models.MilestoneStatus) []models.MilestoneResponse {
	out := make([]models.MilestoneResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, models.MilestoneResponse{
			Achieved:      achievedLabel(s.Achieved),
			Award:         s.Award,
			ReferralCount: s.ReferralCount,
		})
	}
	return out
}

// ToHistoryResponses renders timestamps in UTC with the given layout.
func ToHistoryResponses(entries []models.HistoryEntry, timeLayout string) []models.HistoryEntryResponse {
	out := make([]models.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.HistoryEntryResponse{
			Award:     e.Award,
			Email:     e.MaskedEmail,
			Timestamp: e.Timestamp.UTC().Format(timeLayout),
		})
	}
	return out
}
