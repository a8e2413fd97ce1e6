package meetup

import (
	"context"
	"fmt"

	"horse.fit/meetups/internal/sources"
)

type Match struct {
	MeetupID   int64   `json:"meetup_id"`
	Title      string  `json:"title"`
	VideoID    string  `json:"video_id"`
	VideoTitle string  `json:"video_title"`
	VideoURL   string  `json:"video_url"`
	Score      float64 `json:"score"`
}

type MatchResult struct {
	Candidates int     `json:"candidates"`
	Videos     int     `json:"videos"`
	Matched    int     `json:"matched"`
	Matches    []Match `json:"matches"`
}

// MatchVideos links stored events that have no video to the most similar
// recent upload, when that similarity reaches the threshold.
func (s *Service) MatchVideos(ctx context.Context) (MatchResult, error) {
	if s == nil || s.store == nil || s.videos == nil {
		return MatchResult{}, fmt.Errorf("meetup service is not initialized")
	}
	if !s.opts.Enabled {
		return MatchResult{}, ErrServiceDisabled
	}

	candidates, err := s.store.ListUnmatchedMeetups(ctx)
	if err != nil {
		return MatchResult{}, fmt.Errorf("list unmatched events: %w", err)
	}
	result := MatchResult{Candidates: len(candidates), Matches: []Match{}}
	s.opts.Metrics.UnmatchedBacklog(len(candidates))
	if len(candidates) == 0 {
		return result, nil
	}

	videos, err := s.videos.FetchCandidateVideos(ctx)
	if err != nil {
		s.recordFetchFailure(err, sources.YouTubeProvider)
		return result, err
	}
	result.Videos = len(videos)
	if len(videos) == 0 {
		return result, nil
	}

	for _, candidate := range candidates {
		index, score, ok := bestMatch(candidate.Title, videos, s.opts.Threshold, s.opts.Scorer)
		if !ok {
			continue
		}
		video := videos[index]
		videoURL := video.WatchURL()

		updated, err := s.store.SetMeetupVideoURL(ctx, candidate.MeetupID, videoURL)
		if err != nil {
			s.opts.Metrics.VideosMatched(result.Matched)
			return result, fmt.Errorf("store video for event %d: %w", candidate.MeetupID, err)
		}
		if !updated {
			s.logger.Debug().Int64("meetup_id", candidate.MeetupID).Msg("video already set, skipping")
			continue
		}

		result.Matched++
		result.Matches = append(result.Matches, Match{
			MeetupID:   candidate.MeetupID,
			Title:      candidate.Title,
			VideoID:    video.VideoID,
			VideoTitle: video.Title,
			VideoURL:   videoURL,
			Score:      score,
		})
		s.logger.Info().
			Int64("meetup_id", candidate.MeetupID).
			Str("video_id", video.VideoID).
			Float64("score", score).
			Msg("video matched")
	}

	s.opts.Metrics.VideosMatched(result.Matched)
	s.logger.Info().
		Int("candidates", result.Candidates).
		Int("videos", result.Videos).
		Int("matched", result.Matched).
		Msg("video matching completed")

	return result, nil
}

// bestMatch returns the index of the highest scoring video at or above
// threshold. On equal scores the earliest video wins.
func bestMatch(title string, videos []sources.CandidateVideo, threshold float64, score func(a, b string) float64) (int, float64, bool) {
	best := -1
	bestScore := 0.0
	for i, video := range videos {
		current := score(title, video.Title)
		if current < threshold {
			continue
		}
		if best == -1 || current > bestScore {
			best = i
			bestScore = current
		}
	}
	return best, bestScore, best != -1
}
