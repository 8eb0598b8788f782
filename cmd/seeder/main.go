package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/exemplar"
	"github.com/poiesic/exemplar/ingestion"
)

// seedEmail is one demo email in the embedded corpus.
type seedEmail struct {
	recipient string
	subject   string
	text      string
	daysAgo   int
}

var emails = []seedEmail{
	{
		recipient: "dana@initech.io",
		subject:   "Standup notes",
		text:      "Moved the migration to Thursday. The staging cluster is still on the old schema, so shout if you see drift.",
		daysAgo:   3,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Re: review comments",
		text:      "Good catches on the retry loop. I folded both suggestions in and re-requested review.",
		daysAgo:   9,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Deploy window",
		text:      "I'm taking the 4pm window for the indexer rollout. Should be quiet, but I'll be on the channel.",
		daysAgo:   17,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Re: flaky test",
		text:      "It's the clock skew again. I pinned the test to a fake clock and it's been green for fifty runs.",
		daysAgo:   34,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Offsite agenda",
		text:      "Added a slot for the storage roadmap. Can you bring the cost numbers from last quarter?",
		daysAgo:   60,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Re: oncall handoff",
		text:      "Nothing open except the slow compaction alert, which is known and tracked. Pager's all yours.",
		daysAgo:   96,
	},
	{
		recipient: "dana@initech.io",
		subject:   "Re: design doc",
		text:      "Left comments inline. Main concern is the fan-out on cache misses, the rest is nits.",
		daysAgo:   150,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Re: Q3 integration timeline",
		text:      "Thanks for your patience on this. We can commit to a pilot the week of the 14th, with your data loaded by the Friday before.",
		daysAgo:   5,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Follow-up from today's call",
		text:      "Summarizing what we agreed: we deliver the export API in June, and your team handles the field mapping. I'll send the contract amendment tomorrow.",
		daysAgo:   21,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Re: onboarding materials",
		text:      "The updated guide is attached. Section 4 covers the credential rotation your security team asked about.",
		daysAgo:   42,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Scheduling the quarterly review",
		text:      "Would Tuesday at 10 or Wednesday at 2 work for the review? Happy to send an agenda ahead of time.",
		daysAgo:   70,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Re: invoice question",
		text:      "You're right, the March invoice double-counted the support hours. A corrected copy is on its way.",
		daysAgo:   110,
	},
	{
		recipient: "priya.shah@meridianlabs.com",
		subject:   "Re: renewal terms",
		text:      "We can hold current pricing through the renewal if we sign before the 30th. I've asked legal to expedite.",
		daysAgo:   200,
	},
	{
		recipient: "billing@northwindhosting.com",
		subject:   "Re: invoice 4471",
		text:      "Confirming receipt. Payment goes out in Thursday's run.",
		daysAgo:   12,
	},
	{
		recipient: "billing@northwindhosting.com",
		subject:   "Re: bandwidth overage",
		text:      "Please apply the committed-use discount before we settle this one.",
		daysAgo:   55,
	},
	{
		recipient: "billing@northwindhosting.com",
		subject:   "Re: contract renewal",
		text:      "Renewing for twelve months at the quoted rate. Send the countersigned copy when ready.",
		daysAgo:   130,
	},
	{
		recipient: "billing@northwindhosting.com",
		subject:   "Re: maintenance window",
		text:      "Acknowledged. Our traffic is lowest Sunday 2-6am UTC if the window is movable.",
		daysAgo:   220,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "",
		text:      "ok but counterpoint: tacos first, then the movie. the 9:40 showing exists for a reason",
		daysAgo:   2,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "",
		text:      "that trail was brutal and my legs have filed a formal complaint. same time next month?",
		daysAgo:   25,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "re: playlist",
		text:      "added like six songs, two of which are objectively great and four of which are for morale",
		daysAgo:   48,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "",
		text:      "can't do friday, got roped into a work thing. saturday brunch instead? i'm buying since i bailed",
		daysAgo:   80,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "",
		text:      "the sourdough finally worked!! crumb shot attached. the starter's name is now officially Doughvid",
		daysAgo:   140,
	},
	{
		recipient: "jamie.v@gmail.com",
		subject:   "re: road trip",
		text:      "i vote the coast route. yes it's longer. that's the point of a road trip, marcus",
		daysAgo:   260,
	},
	{
		recipient: "rosa.delgado@yahoo.com",
		subject:   "",
		text:      "Flight lands at 6:20 on the 23rd. Don't cook anything big, we'll be wrecked from the layover.",
		daysAgo:   8,
	},
	{
		recipient: "rosa.delgado@yahoo.com",
		subject:   "Re: dad's birthday",
		text:      "I'm in for the grill. I'll handle the cake order if you deal with keeping him away from the house.",
		daysAgo:   30,
	},
	{
		recipient: "rosa.delgado@yahoo.com",
		subject:   "",
		text:      "The photos from the lake are up in the shared album. The one of you two on the dock is getting framed.",
		daysAgo:   65,
	},
	{
		recipient: "rosa.delgado@yahoo.com",
		subject:   "",
		text:      "Yes I'm eating vegetables, yes I'm sleeping, no you don't need to mail me soup. Love you.",
		daysAgo:   120,
	},
	{
		recipient: "rosa.delgado@yahoo.com",
		subject:   "Re: Thanksgiving",
		text:      "We'll take the guest room if Marco's crew wants the cabin. One request: no politics until after pie.",
		daysAgo:   290,
	},
}

var (
	dbPath = flag.String("db", "./exemplar_db", "database directory")
	userID = flag.String("user", "demo", "user id to seed under")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// seedInputs spreads the corpus over the past year so temporal ordering has
// something to bite on.
func seedInputs(user string) []ingestion.EmailInput {
	now := time.Now().UTC()
	inputs := make([]ingestion.EmailInput, len(emails))
	for i, email := range emails {
		inputs[i] = ingestion.EmailInput{
			UserID:         user,
			RecipientEmail: email.recipient,
			Subject:        email.subject,
			Text:           email.text,
			SentAt:         now.AddDate(0, 0, -email.daysAgo),
		}
	}
	return inputs
}

// ingestBatched hands inputs to the pipeline in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, inputs []ingestion.EmailInput, batchSize int) (int, error) {
	stored := 0
	for offset := 0; offset < len(inputs); offset += batchSize {
		end := offset + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		added, err := pipeline.Ingest(ctx, inputs[offset:end]...)
		if err != nil {
			return stored, err
		}
		stored += len(added)
	}
	return stored, nil
}

func main() {
	system, err := exemplar.Open(*dbPath)
	if err != nil {
		panic(err)
	}
	defer system.Close()

	pipeline, err := system.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	// Ingest in batches of 5
	stored, err := ingestBatched(ctx, pipeline, seedInputs(*userID), 5)
	if err != nil {
		pipeline.Release()
		panic(err)
	}

	// Wait for vector indexing before the store closes
	if err := pipeline.ReleaseTimeout(2 * time.Minute); err != nil {
		panic(err)
	}

	slog.Info("seed complete", "emails", stored, "user", *userID, "db", *dbPath)
}
