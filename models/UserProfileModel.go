package models

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID          string   `dynamodbav:"userId" json:"userId"`                                     // Partition Key
	UserName        string   `dynamodbav:"username,omitempty" json:"username,omitempty"`             // Display name, 3-30 chars
	GenreTags       []string `dynamodbav:"genreTags,omitempty" json:"genreTags,omitempty"`           // Music/interest genres
	PersonalityTags []string `dynamodbav:"personalityTags,omitempty" json:"personalityTags,omitempty"`
	HabitTags       []string `dynamodbav:"habitTags,omitempty" json:"habitTags,omitempty"`
	UsernameChanged bool     `dynamodbav:"usernameChanged,omitempty" json:"usernameChanged,omitempty"` // One-time flag, set on first rename
	CreatedAt       string   `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// AllTags returns every tag on the profile across the three categories
func (p *UserProfile) AllTags() []string {
	tags := make([]string, 0, len(p.GenreTags)+len(p.PersonalityTags)+len(p.HabitTags))
	tags = append(tags, p.GenreTags...)
	tags = append(tags, p.PersonalityTags...)
	tags = append(tags, p.HabitTags...)
	return tags
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
