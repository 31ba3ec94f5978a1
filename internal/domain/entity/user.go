package entity

import "time"

// User is the read model served by the participant directory. Identity and
// profile management live outside this service.
type User struct {
	ID          string `json:"id" firestore:"id"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Email       string `json:"email" firestore:"email"`
	AvatarURL   string `json:"avatar_url,omitempty" firestore:"avatarUrl,omitempty"`
	Role        string `json:"role" firestore:"role"`

	NotificationsEnabled        bool `json:"notifications_enabled" firestore:"notificationsEnabled"`
	MessageNotificationsEnabled bool `json:"message_notifications_enabled" firestore:"messageNotificationsEnabled"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
