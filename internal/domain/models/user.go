package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SocialAccount links a user to an external identity provider (e.g. Google).
type SocialAccount struct {
	ProviderUserID string `bson:"provider_user_id" json:"provider_user_id"`
	Provider       string `bson:"provider" json:"provider"`
}

// JudgeAccount is a user's account on an external online judge.
// A user holds at most one JudgeAccount per judge.
type JudgeAccount struct {
	UserID   string             `bson:"user_id" json:"user_id"`
	Username string             `bson:"username" json:"username"`
	JudgeID  primitive.ObjectID `bson:"judge_id" json:"judge_id"`
}

// User represents a registered platform user.
//
// Password and VerificationToken are persisted but carry json:"-" so
// no response path can serialize them. Permissions is the denormalized
// permission set copied from the user's role at registration, keyed by
// entity name ("user", "hub", "judge").
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name              string               `bson:"name" json:"name"`
	Lastname          string               `bson:"lastname" json:"lastname"`
	Email             string               `bson:"email" json:"email"`
	Password          string               `bson:"password" json:"-"`
	VerificationToken string               `bson:"verification_token" json:"-"`
	IsActive          bool                 `bson:"is_active" json:"is_active"`
	RegistrationStep  int                  `bson:"registration_step" json:"registration_step"`
	SocialAccounts    []SocialAccount      `bson:"social_accounts,omitempty" json:"social_accounts,omitempty"`
	JudgeAccounts     []JudgeAccount       `bson:"judge_accounts,omitempty" json:"judge_accounts,omitempty"`
	HubIDs            []primitive.ObjectID `bson:"hub_ids,omitempty" json:"hub_ids,omitempty"`
	TeamIDs           []primitive.ObjectID `bson:"team_ids,omitempty" json:"team_ids,omitempty"`
	Permissions       map[string][]string  `bson:"permissions,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasJudgeAccount reports whether the user already holds an account on
// the given judge.
func (u *User) HasJudgeAccount(judgeID primitive.ObjectID) bool {
	for _, ja := range u.JudgeAccounts {
		if ja.JudgeID == judgeID {
			return true
		}
	}
	return false
}

// InHub reports whether hubID is already in the user's hub set.
func (u *User) InHub(hubID primitive.ObjectID) bool {
	for _, id := range u.HubIDs {
		if id == hubID {
			return true
		}
	}
	return false
}
