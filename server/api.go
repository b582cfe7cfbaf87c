package server

import (
	"time"

	"github.com/Luismorlan/dailydrop/model"
	"github.com/jinzhu/copier"
)

// Request and response payloads of the REST surface. Responses are copied from
// the gorm models with copier so column additions don't silently leak into the
// API.

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	Id          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	IsOnboarded bool       `json:"isOnboarded"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func NewUserResponse(user *model.User) (UserResponse, error) {
	var resp UserResponse
	err := copier.Copy(&resp, user)
	return resp, err
}

type TopicResponse struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PreferenceEntry struct {
	TopicID string  `json:"topicId" binding:"required"`
	Weight  float64 `json:"weight"`
}

type ReplacePreferencesRequest struct {
	Preferences []PreferenceEntry `json:"preferences"`
}

type PreferenceResponse struct {
	TopicID   string  `json:"topicId"`
	TopicName string  `json:"topicName"`
	Weight    float64 `json:"weight"`
}

type DropResponse struct {
	ContentID     string    `json:"contentId"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Url           string    `json:"url"`
	Source        string    `json:"source"`
	ContentType   string    `json:"contentType"`
	ImageUrl      string    `json:"imageUrl,omitempty"`
	DropDate      time.Time `json:"dropDate"`
	MatchScore    float64   `json:"matchScore"`
	WasViewed     bool      `json:"wasViewed"`
	WasBookmarked bool      `json:"wasBookmarked"`
}

type CreateSubmissionRequest struct {
	Url             string   `json:"url" binding:"required,url"`
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	SuggestedTopics []string `json:"suggestedTopics"`
}

type SubmissionResponse struct {
	Id              string    `json:"id"`
	UserID          string    `json:"userId"`
	Url             string    `json:"url"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	SuggestedTopics []string  `json:"suggestedTopics"`
	Status          string    `json:"status"`
	ModerationNotes string    `json:"moderationNotes,omitempty"`
	ContentID       *string   `json:"contentId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func NewSubmissionResponse(submission *model.UserSubmission) (SubmissionResponse, error) {
	var resp SubmissionResponse
	err := copier.Copy(&resp, submission)
	return resp, err
}

type ModerateSubmissionRequest struct {
	Status          string `json:"status" binding:"required,oneof=approved rejected"`
	ModerationNotes string `json:"moderationNotes"`
}

type AdminStatsResponse struct {
	TotalUsers         int64 `json:"totalUsers"`
	OnboardedUsers     int64 `json:"onboardedUsers"`
	TotalContent       int64 `json:"totalContent"`
	TotalDrops         int64 `json:"totalDrops"`
	PendingSubmissions int64 `json:"pendingSubmissions"`
	ActiveFeeds        int64 `json:"activeFeeds"`
}
