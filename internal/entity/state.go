package entity

// LevelInfo describes where an XP total sits on the level table.
type LevelInfo struct {
	Level               int `json:"level"`
	ProgressWithinLevel int `json:"progress_within_level"`
	XP                  int `json:"xp"`
	LevelFloor          int `json:"level_floor"`
	NextLevelXP         int `json:"next_level_xp"`
}

// LessonState is a lesson annotated with the learner's access to it.
type LessonState struct {
	Lesson       Lesson `json:"lesson"`
	Position     int    `json:"position"`
	IsLocked     bool   `json:"is_locked"`
	IsCompleted  bool   `json:"is_completed"`
	IsCurrent    bool   `json:"is_current"`
	IsCheckpoint bool   `json:"is_checkpoint"`
}

// StageState summarises a learner's progress through a stage.
type StageState struct {
	Stage            Stage `json:"stage"`
	IsLocked         bool  `json:"is_locked"`
	LessonsTotal     int   `json:"lessons_total"`
	LessonsCompleted int   `json:"lessons_completed"`
	ProgressPercent  int   `json:"progress_percent"`
}

// Answer is a learner's response to one interactive block of a lesson.
// Selected carries option indices for choice blocks; Placements maps
// item -> category for sorting blocks.
type Answer struct {
	BlockIndex int               `json:"block_index"`
	Selected   []int             `json:"selected,omitempty"`
	Placements map[string]string `json:"placements,omitempty"`
}
