package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/daybook/internal/entry"
)

// profile describes a kind of writer to simulate.
type profile struct {
	name        string
	description string
	daysBack    int
	// writes reports whether the writer makes an entry on day.
	writes func(day time.Time, rng *rand.Rand) bool
	pages  []page
}

// page produces a title and story for one day.
type page func(day time.Time, rng *rand.Rand) (title, story string)

func chance(p float64) func(time.Time, *rand.Rand) bool {
	return func(_ time.Time, rng *rand.Rand) bool { return rng.Float64() < p }
}

func isWeekend(day time.Time) bool {
	return day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
}

var profiles = map[string]profile{
	"steady": {
		name:        "steady",
		description: "Writes almost every evening",
		daysBack:    90,
		writes:      chance(0.9),
		pages:       []page{eveningNote, smallWins, weatherNote, whatIAte},
	},
	"weekender": {
		name:        "weekender",
		description: "Writes on weekends, rarely during the week",
		daysBack:    120,
		writes: func(day time.Time, rng *rand.Rand) bool {
			if isWeekend(day) {
				return rng.Float64() < 0.85
			}
			return rng.Float64() < 0.1
		},
		pages: []page{outing, whatIAte, visitors, eveningNote},
	},
	"traveller": {
		name:        "traveller",
		description: "Bursts of entries on trips, quiet in between",
		daysBack:    60,
		writes: func(day time.Time, rng *rand.Rand) bool {
			// Trips cover roughly one week in three.
			_, week := day.ISOWeek()
			if week%3 == 0 {
				return true
			}
			return rng.Float64() < 0.15
		},
		pages: []page{travelDay, outing, weatherNote},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [profile]",
	Short: "Fill the diary with sample entries",
	Long: `Write sample entries going back a few months, as a given kind of writer
would. Existing entries are kept.

If no profile is given, "steady" is used. Use --list to see the profiles.`,
	Example: `  daybook seed
  daybook seed weekender
  daybook seed --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			listProfiles(cmd.OutOrStdout())
			return nil
		}
		name := "steady"
		if len(args) == 1 {
			name = args[0]
		}
		p, ok := profiles[name]
		if !ok {
			return userError(fmt.Errorf("unknown profile %q (see daybook seed --list)", name))
		}
		if err := openDiary(false); err != nil {
			return err
		}
		seed, _ := cmd.Flags().GetInt64("seed")
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		n, err := seedRun(cmd.Context(), p, time.Now(), rand.New(rand.NewSource(seed)))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d entries (%s).\n", n, p.name)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("list", false, "list available profiles")
	seedCmd.Flags().Int64("seed", 0, "random seed, for repeatable output")
	rootCmd.AddCommand(seedCmd)
}

func listProfiles(w io.Writer) {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Available profiles:")
	for _, name := range names {
		p := profiles[name]
		fmt.Fprintf(w, "  %-10s %s (~%d days)\n", p.name, p.description, p.daysBack)
	}
}

func seedRun(ctx context.Context, p profile, now time.Time, rng *rand.Rand) (int, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -p.daysBack)
	n := 0
	for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
		if !p.writes(day, rng) {
			continue
		}
		id, err := entry.NewID()
		if err != nil {
			return n, systemError(err)
		}
		title, story := p.pages[rng.Intn(len(p.pages))](day, rng)
		e := entry.Entry{
			ID:    id,
			Title: title,
			Story: story,
			Date:  day.Add(time.Duration(18+rng.Intn(5))*time.Hour + time.Duration(rng.Intn(60))*time.Minute),
			Photo: []string{},
		}
		if _, err := diary.Upsert(ctx, e); err != nil {
			return n, systemError(err)
		}
		n++
	}
	if err := diary.Flush(ctx); err != nil {
		return n, systemError(err)
	}
	return n, nil
}

func pick(rng *rand.Rand, items ...string) string {
	return items[rng.Intn(len(items))]
}

func eveningNote(day time.Time, rng *rand.Rand) (string, string) {
	mood := pick(rng, "tired but content", "restless", "calm", "oddly cheerful", "a bit flat")
	return pick(rng, "Evening", "End of the day", day.Format("Monday")),
		fmt.Sprintf("Feeling %s tonight.\n\n%s", mood, pick(rng,
			"Work ran long, so dinner was late. Read a few pages before bed.",
			"Called Mum. She is planning the garden again.",
			"Took the long way home along the river.",
			"Nothing much happened, which was nice for a change.",
		))
}

func smallWins(_ time.Time, rng *rand.Rand) (string, string) {
	wins := []string{
		"finished the report", "fixed the squeaky door", "went for a run",
		"cleared the inbox", "cooked something new", "slept eight hours",
		"answered the letter from Sam",
	}
	rng.Shuffle(len(wins), func(i, j int) { wins[i], wins[j] = wins[j], wins[i] })
	var b strings.Builder
	for _, w := range wins[:3] {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	return "Small wins", strings.TrimRight(b.String(), "\n")
}

func weatherNote(_ time.Time, rng *rand.Rand) (string, string) {
	w := pick(rng, "Rain all day", "Clear skies", "Fog until noon", "First frost", "Thunderstorm")
	return w, fmt.Sprintf("%s. %s", w, pick(rng,
		"Stayed in and listened to records.",
		"Walked to the market anyway.",
		"The cat refused to go outside.",
		"Sat on the balcony with tea.",
	))
}

func whatIAte(_ time.Time, rng *rand.Rand) (string, string) {
	dish := pick(rng, "lentil soup", "pasta with too much garlic", "dumplings", "a very good curry", "toast, again")
	return "Dinner", fmt.Sprintf("Made %s. %s", dish, pick(rng,
		"Would make it again.",
		"Needs more salt next time.",
		"Leftovers for tomorrow.",
	))
}

func outing(_ time.Time, rng *rand.Rand) (string, string) {
	place := pick(rng, "the beach", "the botanical garden", "the hills", "the flea market", "the lake")
	return "Out to " + strings.TrimPrefix(place, "the "), fmt.Sprintf("Spent the afternoon at %s. %s", place, pick(rng,
		"Found a bench in the sun and stayed for an hour.",
		"Too crowded, left early.",
		"Bought a postcard I will never send.",
		"Saw a heron.",
	))
}

func visitors(_ time.Time, rng *rand.Rand) (string, string) {
	who := pick(rng, "Ana and Tom", "my brother", "the neighbours", "old friends from school")
	return "Visitors", fmt.Sprintf("%s came over. %s", who, pick(rng,
		"We talked until midnight.",
		"Board games and far too much cake.",
		"Cooked together, which was chaos.",
	))
}

func travelDay(day time.Time, rng *rand.Rand) (string, string) {
	city := pick(rng, "Lisbon", "Kyoto", "Edinburgh", "Oaxaca", "Tallinn")
	return fmt.Sprintf("%s, day %d", city, 1+day.YearDay()%7), fmt.Sprintf("%s\n\n%s", pick(rng,
		"Got lost twice before lunch.",
		"The train was late but the view made up for it.",
		"Walked about twenty thousand steps.",
		"Rain in the morning, sun by the afternoon.",
	), pick(rng,
		"Best meal of the trip so far.",
		"Need to buy better shoes.",
		"Could live here.",
	))
}
