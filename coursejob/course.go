package coursejob

// Course is the structured study content produced by a completed job.
type Course struct {
	CourseID              string       `json:"course_id"`
	CourseTitle           string       `json:"course_title"`
	Hook                  string       `json:"hook"`
	Difficulty            string       `json:"difficulty"`
	EstimatedTotalMinutes int          `json:"estimated_total_minutes"`
	Modules               []Module     `json:"modules"`
	Source                CourseSource `json:"source"`
}

// CourseSource records the playlist a course was generated from.
type CourseSource struct {
	PlaylistURL string `json:"playlist_url"`
	VideosCount int    `json:"videos_count"`
}

// Module groups lessons under a shared theme with an optional quiz.
type Module struct {
	ModuleID         string     `json:"module_id"`
	Title            string     `json:"title"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Objectives       []string   `json:"objectives"`
	Lessons          []Lesson   `json:"lessons"`
	Quiz             []QuizItem `json:"quiz,omitempty"`
}

// Lesson is one playlist video turned into study content.
type Lesson struct {
	LessonID              string   `json:"lesson_id"`
	VideoID               string   `json:"video_id"`
	Title                 string   `json:"title"`
	Summary               string   `json:"summary"`
	LearningObjectives    []string `json:"learning_objectives"`
	EstimatedMinutes      int      `json:"estimated_minutes"`
	Difficulty            string   `json:"difficulty"`
	VideoURL              string   `json:"video_url"`
	StudyMaterialMarkdown string   `json:"study_material_markdown"`
}

// QuizItem is one multiple-choice question. AnswerIndex is always a valid
// index into Options; items that fail that check are dropped at generation.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation,omitempty"`
}
