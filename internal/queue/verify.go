package queue

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/nix24/phoenixPlayer/internal/models"
	"github.com/nix24/phoenixPlayer/internal/shared"
)

// IssueKind classifies a queue inconsistency.
type IssueKind string

const (
	DanglingPointer IssueKind = "dangling_pointer" // a link or queue pointer names a missing song
	Cycle           IssueKind = "cycle"            // following next links revisits a song
	BrokenBackLink  IssueKind = "broken_back_link" // a song's prev does not name its predecessor
	Unreachable     IssueKind = "unreachable"      // a stored song is not on the list from the head
	WrongTail       IssueKind = "wrong_tail"       // the walk does not end at LastSongID
	CountMismatch   IssueKind = "count_mismatch"   // TotalSongs differs from the number of songs
	DanglingCurrent IssueKind = "dangling_current" // CurrentSongID names a missing song
)

// Issue is a single inconsistency found by [Verify].
type Issue struct {
	Kind   IssueKind `json:"kind"`
	SongID int64     `json:"song_id,omitempty"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
}

// Report is the outcome of [Verify].
type Report struct {
	Issues    []Issue `json:"issues"`
	Reachable int     `json:"reachable"`
	Total     int     `json:"total"`
}

// OK reports whether no issues were found.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// Has reports whether an issue of kind was found.
func (r Report) Has(kind IssueKind) bool {
	return slices.ContainsFunc(r.Issues, func(i Issue) bool { return i.Kind == kind })
}

// Err returns nil for a clean report and a [shared.ErrInvariantViolation] summary otherwise.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	parts := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		parts = append(parts, i.String())
	}
	return fmt.Errorf("%w: %s", shared.ErrInvariantViolation, strings.Join(parts, "; "))
}

// Verify checks the stored list against the queue row.
func Verify(q models.GlobalQueue, songs []models.Song) Report {
	byID := make(map[int64]models.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	report := Report{Total: len(songs)}
	add := func(kind IssueKind, id int64, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{Kind: kind, SongID: id, Detail: fmt.Sprintf(format, args...)})
	}

	if err := q.Validate(); err != nil {
		add(DanglingPointer, models.NoID, "%v", err)
	}

	visited := make(map[int64]bool, len(songs))
	var (
		expectedPrev = models.NoID
		lastSeen     = models.NoID
		broken       bool
	)
	for cur := q.FirstSongID; cur != models.NoID; {
		song, ok := byID[cur]
		if !ok {
			if expectedPrev == models.NoID {
				add(DanglingPointer, cur, "first song %d does not exist", cur)
			} else {
				add(DanglingPointer, expectedPrev, "song %d links to missing next song %d", expectedPrev, cur)
			}
			broken = true
			break
		}
		if visited[cur] {
			add(Cycle, cur, "song %d is reached twice from the head", cur)
			broken = true
			break
		}
		visited[cur] = true

		if song.PrevID != expectedPrev {
			add(BrokenBackLink, cur, "song %d has prev %d, expected %d", cur, song.PrevID, expectedPrev)
		}
		expectedPrev = cur
		lastSeen = cur
		cur = song.NextID
	}
	report.Reachable = len(visited)

	if !broken && lastSeen != q.LastSongID {
		add(WrongTail, q.LastSongID, "list ends at %d but last song is %d", lastSeen, q.LastSongID)
	}

	for _, s := range songs {
		if !visited[s.ID] {
			add(Unreachable, s.ID, "song %d is not reachable from the head", s.ID)
		}
	}

	if q.TotalSongs != len(songs) {
		add(CountMismatch, models.NoID, "queue counts %d songs, %d stored", q.TotalSongs, len(songs))
	}

	if q.CurrentSongID != models.NoID {
		if _, ok := byID[q.CurrentSongID]; !ok {
			add(DanglingCurrent, q.CurrentSongID, "current song %d does not exist", q.CurrentSongID)
		}
	}

	return report
}

// Plan is the result of [Rebuild]: the consistent queue row, every song in list order
// with corrected links, and the subset whose links changed.
type Plan struct {
	Queue   models.GlobalQueue
	Order   []models.Song
	Changed []models.Song
}

// Rebuild computes a consistent list from the stored songs.
//
// The valid prefix reachable from the head keeps its order; every other song is appended
// in id order. The current song is kept when it exists, otherwise the head becomes current.
func Rebuild(q models.GlobalQueue, songs []models.Song) Plan {
	byID := make(map[int64]models.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	order := make([]models.Song, 0, len(songs))
	placed := make(map[int64]bool, len(songs))
	for cur := q.FirstSongID; cur != models.NoID; {
		song, ok := byID[cur]
		if !ok || placed[cur] {
			break
		}
		placed[cur] = true
		order = append(order, song)
		cur = song.NextID
	}

	rest := make([]models.Song, 0, len(songs)-len(order))
	for _, s := range songs {
		if !placed[s.ID] {
			rest = append(rest, s)
		}
	}
	slices.SortFunc(rest, func(a, b models.Song) int { return cmp.Compare(a.ID, b.ID) })
	order = append(order, rest...)

	plan := Plan{Order: order}
	for i := range order {
		prev, next := models.NoID, models.NoID
		if i > 0 {
			prev = order[i-1].ID
		}
		if i < len(order)-1 {
			next = order[i+1].ID
		}
		if order[i].PrevID != prev || order[i].NextID != next {
			order[i].PrevID = prev
			order[i].NextID = next
			plan.Changed = append(plan.Changed, order[i])
		}
	}

	plan.Queue = models.GlobalQueue{TotalSongs: len(order)}
	if len(order) > 0 {
		plan.Queue.FirstSongID = order[0].ID
		plan.Queue.LastSongID = order[len(order)-1].ID
		plan.Queue.CurrentSongID = order[0].ID
		if _, ok := byID[q.CurrentSongID]; ok {
			plan.Queue.CurrentSongID = q.CurrentSongID
		}
	}
	return plan
}

// Walk returns the songs reachable from the head in list order, stopping at a missing song or a repeat.
func Walk(q models.GlobalQueue, lookup func(id int64) (models.Song, bool)) []models.Song {
	out := []models.Song{}
	seen := make(map[int64]bool)
	for cur := q.FirstSongID; cur != models.NoID && !seen[cur]; {
		song, ok := lookup(cur)
		if !ok {
			break
		}
		seen[cur] = true
		out = append(out, song)
		cur = song.NextID
	}
	return out
}
