package meetup

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/sources"
)

type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	meetups   []db.Meetup
	setVideo  []int64
	insertErr error
	// loseRace makes InsertMeetup report a concurrent insert for these ids.
	loseRace map[string]bool
	// videoTaken makes SetMeetupVideoURL report zero rows for these ids.
	videoTaken map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{loseRace: map[string]bool{}, videoTaken: map[int64]bool{}}
}

func (f *fakeStore) seed(title string, start time.Time, videoURL *string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.meetups = append(f.meetups, db.Meetup{
		MeetupID:        f.nextID,
		Source:          DefaultSource,
		ExternalEventID: "seed-" + title,
		Title:           title,
		StartDate:       start,
		VideoURL:        videoURL,
	})
	return f.nextID
}

func (f *fakeStore) MeetupExists(_ context.Context, source, externalEventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.meetups {
		if m.Source == source && m.ExternalEventID == externalEventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertMeetup(_ context.Context, in db.NewMeetup) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, false, f.insertErr
	}
	if f.loseRace[in.ExternalEventID] {
		return 0, false, nil
	}
	for _, m := range f.meetups {
		if m.Source == in.Source && m.ExternalEventID == in.ExternalEventID {
			return 0, false, nil
		}
	}
	f.nextID++
	f.meetups = append(f.meetups, db.Meetup{
		MeetupID:        f.nextID,
		Source:          in.Source,
		ExternalEventID: in.ExternalEventID,
		ExternalURL:     in.ExternalURL,
		Title:           in.Title,
		CoverURL:        in.CoverURL,
		Description:     in.Description,
		DescriptionText: in.DescriptionText,
		StartDate:       in.StartDate,
		CreatedAt:       time.Unix(f.nextID, 0).UTC(),
	})
	return f.nextID, true, nil
}

func (f *fakeStore) ListUnmatchedMeetups(_ context.Context) ([]db.UnmatchedMeetup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.UnmatchedMeetup, 0)
	for _, m := range f.meetups {
		if m.VideoURL == nil {
			out = append(out, db.UnmatchedMeetup{MeetupID: m.MeetupID, Title: m.Title, StartDate: m.StartDate})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].MeetupID < out[j].MeetupID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (f *fakeStore) SetMeetupVideoURL(_ context.Context, meetupID int64, videoURL string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setVideo = append(f.setVideo, meetupID)
	if f.videoTaken[meetupID] {
		return false, nil
	}
	for i := range f.meetups {
		if f.meetups[i].MeetupID == meetupID && f.meetups[i].VideoURL == nil {
			url := videoURL
			f.meetups[i].VideoURL = &url
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SearchMeetups(_ context.Context, criteria string) ([]db.Meetup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(criteria)
	out := make([]db.Meetup, 0)
	for i := len(f.meetups) - 1; i >= 0; i-- {
		m := f.meetups[i]
		if strings.Contains(strings.ToLower(m.Title), needle) ||
			strings.Contains(strings.ToLower(m.Description), needle) ||
			strings.Contains(strings.ToLower(m.DescriptionText), needle) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMeetups(_ context.Context, limit, offset int) ([]db.Meetup, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := int64(len(f.meetups))
	if offset >= len(f.meetups) {
		return []db.Meetup{}, total, nil
	}
	end := min(offset+limit, len(f.meetups))
	return append([]db.Meetup(nil), f.meetups[offset:end]...), total, nil
}

func (f *fakeStore) byExternalID(id string) (db.Meetup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.meetups {
		if m.ExternalEventID == id {
			return m, true
		}
	}
	return db.Meetup{}, false
}

type fakeEvents struct {
	events []sources.ExternalEvent
	err    error
	calls  atomic.Int32
}

func (f *fakeEvents) FetchEvents(context.Context) ([]sources.ExternalEvent, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeVideos struct {
	videos []sources.CandidateVideo
	err    error
	calls  atomic.Int32
}

func (f *fakeVideos) FetchCandidateVideos(context.Context) ([]sources.CandidateVideo, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.videos, nil
}

type fakeCovers struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fakeCovers) Process(_ context.Context, imageURL, eventName, key string) (string, error) {
	f.calls.Add(1)
	if f.fail[key] {
		return "", errors.New("image host unreachable")
	}
	return "https://cdn.test/meetup/" + key + ".png", nil
}

type fakeLedger struct {
	mu       sync.Mutex
	startErr error
	started  []string
	finished []string
	counts   db.SyncRunCounts
	message  string
}

func (f *fakeLedger) StartSyncRun(_ context.Context, runUUID, trigger string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.started = append(f.started, trigger)
	return int64(len(f.started)), nil
}

func (f *fakeLedger) FinishSyncRun(_ context.Context, runID int64, status string, counts db.SyncRunCounts, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, status)
	f.counts = counts
	f.message = errMessage
	return nil
}

type testDeps struct {
	store  *fakeStore
	events *fakeEvents
	videos *fakeVideos
	covers *fakeCovers
}

func newTestService(deps testDeps, opts Options) *Service {
	if deps.store == nil {
		deps.store = newFakeStore()
	}
	if deps.events == nil {
		deps.events = &fakeEvents{}
	}
	if deps.videos == nil {
		deps.videos = &fakeVideos{}
	}
	var covers CoverProcessor
	if deps.covers != nil {
		covers = deps.covers
	}
	return NewService(deps.store, deps.events, deps.videos, covers, opts, zerolog.Nop())
}

func strPtr(s string) *string {
	return &s
}
