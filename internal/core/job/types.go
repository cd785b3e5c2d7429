package job

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether a job in this status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// StepID identifies one of the five fixed pipeline stages.
type StepID string

const (
	StepWireframe  StepID = "wireframe"
	StepCSS        StepID = "css"
	StepJS         StepID = "js"
	StepImage      StepID = "image"
	StepApplyImage StepID = "apply-image"
)

// StepOrder is the fixed stage sequence. Every job carries these five steps,
// same ids, same order, for its whole lifetime.
var StepOrder = []StepID{StepWireframe, StepCSS, StepJS, StepImage, StepApplyImage}

type Step struct {
	ID          StepID  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	Progress    float64 `json:"progress"`
}

// NewSteps builds the five pipeline steps in order, all pending.
func NewSteps() []Step {
	return []Step{
		{ID: StepWireframe, Name: "Wireframe", Description: "Generate the HTML structure", Status: StatusPending},
		{ID: StepCSS, Name: "Styling", Description: "Generate the CSS design", Status: StatusPending},
		{ID: StepJS, Name: "Interactions", Description: "Generate the JavaScript behaviour", Status: StatusPending},
		{ID: StepImage, Name: "Image generation", Description: "Generate the hero image", Status: StatusPending},
		{ID: StepApplyImage, Name: "Image application", Description: "Apply the generated image", Status: StatusPending},
	}
}

// Brief is the structured input describing the landing page to generate.
type Brief struct {
	ServiceName    string `json:"serviceName"`
	ServiceType    string `json:"serviceType"`
	TargetAudience string `json:"targetAudience"`
	Features       string `json:"features"`
	Testimonials   string `json:"testimonials"`
	CompanyName    string `json:"companyName"`
}

// Result is the final payload of a completed job. ImageBase64 is a
// data:image/jpeg;base64 URI, or empty when no hero image could be encoded.
type Result struct {
	JobID       string    `json:"jobId"`
	HTML        string    `json:"html"`
	CSS         string    `json:"css"`
	JS          string    `json:"js"`
	ImageBase64 string    `json:"imageBase64"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Job is one end-to-end pipeline run for one brief.
//
// A record is created pending, mutated only by the executor that owns it, and
// becomes immutable once Status reaches completed or error. Retrying makes a
// brand-new record pointing back via RetryOf; the old one is never touched.
type Job struct {
	ID            string    `json:"jobId"`
	Status        Status    `json:"status"`
	Progress      float64   `json:"progress"`
	CurrentStep   string    `json:"currentStep"`
	Steps         []Step    `json:"steps"`
	Error         string    `json:"error,omitempty"`
	Result        *Result   `json:"result,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	OriginalBrief *Brief    `json:"originalData,omitempty"`
	RetryOf       string    `json:"retryOf,omitempty"`
}

// Clone returns a deep copy so store readers never alias executor-owned state.
func (j *Job) Clone() *Job {
	c := *j
	c.Steps = make([]Step, len(j.Steps))
	copy(c.Steps, j.Steps)
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	if j.OriginalBrief != nil {
		b := *j.OriginalBrief
		c.OriginalBrief = &b
	}
	return &c
}

// New builds a pending record for the given brief, retaining it for retry.
func New(id string, brief Brief) *Job {
	return &Job{
		ID:            id,
		Status:        StatusPending,
		Steps:         NewSteps(),
		CreatedAt:     time.Now().UTC(),
		OriginalBrief: &brief,
	}
}
