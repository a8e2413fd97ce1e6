package db

import "time"

// Meetup maps meetup.meetups.
type Meetup struct {
	MeetupID        int64     `gorm:"column:meetup_id;primaryKey;autoIncrement" json:"meetup_id"`
	MeetupUUID      string    `gorm:"column:meetup_uuid;type:uuid;not null;default:gen_random_uuid();unique" json:"meetup_uuid"`
	Source          string    `gorm:"column:source;type:text;not null" json:"source"`
	ExternalEventID string    `gorm:"column:external_event_id;type:text;not null" json:"external_event_id"`
	ExternalURL     string    `gorm:"column:external_url;type:text;not null;default:''" json:"external_url"`
	Title           string    `gorm:"column:title;type:text;not null" json:"title"`
	CoverURL        *string   `gorm:"column:cover_url;type:text" json:"cover_url,omitempty"`
	Description     string    `gorm:"column:description;type:text;not null;default:''" json:"description"`
	DescriptionText string    `gorm:"column:description_text;type:text;not null;default:''" json:"description_text"`
	StartDate       time.Time `gorm:"column:start_date;type:timestamptz;not null" json:"start_date"`
	VideoURL        *string   `gorm:"column:video_url;type:text" json:"video_url,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()" json:"updated_at"`
}

func (Meetup) TableName() string { return "meetup.meetups" }

// SyncRun maps meetup.sync_runs.
type SyncRun struct {
	SyncRunID      int64      `gorm:"column:sync_run_id;primaryKey;autoIncrement" json:"sync_run_id"`
	RunUUID        string     `gorm:"column:run_uuid;type:uuid;not null;unique" json:"run_uuid"`
	Trigger        string     `gorm:"column:trigger;type:text;not null" json:"trigger"`
	Status         string     `gorm:"column:status;type:meetup.sync_run_status;not null;default:running" json:"status"`
	EventsFetched  int        `gorm:"column:events_fetched;type:integer;not null;default:0" json:"events_fetched"`
	EventsInserted int        `gorm:"column:events_inserted;type:integer;not null;default:0" json:"events_inserted"`
	EventsFailed   int        `gorm:"column:events_failed;type:integer;not null;default:0" json:"events_failed"`
	VideosFetched  int        `gorm:"column:videos_fetched;type:integer;not null;default:0" json:"videos_fetched"`
	VideosMatched  int        `gorm:"column:videos_matched;type:integer;not null;default:0" json:"videos_matched"`
	ErrorMessage   *string    `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	StartedAt      time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()" json:"started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at;type:timestamptz" json:"finished_at,omitempty"`
}

func (SyncRun) TableName() string { return "meetup.sync_runs" }

func autoMigrateModels() []any {
	return []any{
		&Meetup{},
		&SyncRun{},
	}
}
