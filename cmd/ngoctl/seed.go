package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

type eventCreator interface {
	CreateEvent(ctx context.Context, req models.CreateEventRequest, actorID int32) (*models.EventResponse, error)
}

func newSeedCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample data",
	}

	var draft bool
	events := &cobra.Command{
		Use:   "events",
		Short: "Insert sample community events with English and Hindi text",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			created, err := seedEvents(cmd.Context(), services.NewEventService(store, a.logger), time.Now(), draft)
			if err != nil {
				return err
			}
			for _, e := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", e.ID, e.EventDate.Format(time.DateOnly), e.Title)
			}
			return nil
		},
	}
	events.Flags().BoolVar(&draft, "draft", false, "create the events as drafts instead of publishing them")

	cmd.AddCommand(events)
	return cmd
}

func seedEvents(ctx context.Context, creator eventCreator, now time.Time, draft bool) ([]*models.EventResponse, error) {
	requests := sampleEvents(now)
	created := make([]*models.EventResponse, 0, len(requests))
	for _, req := range requests {
		if draft {
			req.Status = models.EventStatusDraft
		}
		event, err := creator.CreateEvent(ctx, req, 0)
		if err != nil {
			return created, fmt.Errorf("failed to seed %q: %w", req.Title, err)
		}
		created = append(created, event)
	}
	return created, nil
}

// sampleEvents returns upcoming events dated relative to now.
func sampleEvents(now time.Time) []models.CreateEventRequest {
	day := now.Truncate(24*time.Hour).AddDate(0, 0, 1)
	at := func(days, hour int) time.Time {
		return day.AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)
	}
	ptr := func(s string) *string { return &s }
	limit := func(n int32) *int32 { return &n }
	timePtr := func(t time.Time) *time.Time { return &t }

	return []models.CreateEventRequest{
		{
			Title:                "Community Health Camp",
			TitleLocal:           ptr("सामुदायिक स्वास्थ्य शिविर"),
			Description:          "Free health check-ups, blood pressure and sugar screening for all ages.",
			DescriptionLocal:     ptr("सभी आयु वर्ग के लिए निःशुल्क स्वास्थ्य जांच, रक्तचाप और शुगर जांच।"),
			Location:             "Community Hall",
			EventDate:            at(7, 9),
			EndDate:              timePtr(at(7, 14)),
			RegistrationDeadline: timePtr(at(6, 18)),
			MaxParticipants:      limit(150),
			IsRegistrationOpen:   true,
			Status:               models.EventStatusPublished,
		},
		{
			Title:              "Blood Donation Drive",
			TitleLocal:         ptr("रक्तदान शिविर"),
			Description:        "Donate blood and help save lives. Donors receive a certificate.",
			DescriptionLocal:   ptr("रक्तदान करें और जीवन बचाएं। सभी दाताओं को प्रमाण पत्र दिया जाएगा।"),
			Location:           "Library Grounds",
			EventDate:          at(14, 10),
			EndDate:            timePtr(at(14, 16)),
			MaxParticipants:    limit(80),
			IsRegistrationOpen: true,
			Status:             models.EventStatusPublished,
		},
		{
			Title:              "Children's Reading Week",
			TitleLocal:         ptr("बाल पठन सप्ताह"),
			Description:        "Story sessions, reading circles and a book exchange for children.",
			DescriptionLocal:   ptr("बच्चों के लिए कहानी सत्र, पठन मंडली और पुस्तक आदान-प्रदान।"),
			Location:           "Library Reading Room",
			EventDate:          at(21, 10),
			EndDate:            timePtr(at(27, 13)),
			IsRegistrationOpen: true,
			Status:             models.EventStatusPublished,
		},
	}
}
