package discord

// ActivityType is the verb Discord shows before the application name.
type ActivityType int

// ActivityPlaying renders as "Playing <application>".
const ActivityPlaying ActivityType = 0

// Activity is the Rich Presence payload of SET_ACTIVITY.
type Activity struct {
	Type   ActivityType `json:"type"`
	State  string       `json:"state,omitempty"`
	Assets *Assets      `json:"assets,omitempty"`
}

// Assets names the large image uploaded to the Discord application.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
}
