package messages

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages holds every user-facing reply text. Operators can override
// any of them through an optional YAML file; unset keys keep defaults.
type Messages struct {
	Greeting        string `yaml:"greeting"`
	ChooseAction    string `yaml:"choose_action"`
	SendPhoto       string `yaml:"send_photo"`
	PhotoAdded      string `yaml:"photo_added"`
	NotAPhoto       string `yaml:"not_a_photo"`
	EnterText       string `yaml:"enter_text"`
	TextSaved       string `yaml:"text_saved"`
	AlbumSent       string `yaml:"album_sent"`
	EnterBroadcast  string `yaml:"enter_broadcast"`
	BroadcastPrefix string `yaml:"broadcast_prefix"`
	BroadcastDone   string `yaml:"broadcast_done"`
	AdminOnly       string `yaml:"admin_only"`
	Help            string `yaml:"help"`
	BotInfo         string `yaml:"bot_info"`

	ButtonBegin      string `yaml:"button_begin"`
	ButtonHelp       string `yaml:"button_help"`
	ButtonBroadcast  string `yaml:"button_broadcast"`
	ButtonBotInfo    string `yaml:"button_bot_info"`
	ButtonSendNoText string `yaml:"button_send_no_text"`
	ButtonWriteText  string `yaml:"button_write_text"`
	ButtonChangeText string `yaml:"button_change_text"`
}

// Defaults returns the built-in reply texts.
func Defaults() Messages {
	return Messages{
		Greeting:        "Hi! Send me a photo or a few at once.",
		ChooseAction:    "Choose an action:",
		SendPhoto:       "Send me a photo.",
		PhotoAdded:      "Photos received: %d. Send more, or pick an action below.",
		NotAPhoto:       "Please send a photo.",
		EnterText:       "Enter the text to attach:",
		TextSaved:       "Text saved: %s\nPhotos received: %d",
		AlbumSent:       "Your album has been sent to the moderator.",
		EnterBroadcast:  "Enter the broadcast text:",
		BroadcastPrefix: "Announcement:\n\n%s",
		BroadcastDone:   "Broadcast finished. Delivered to %d users.",
		AdminOnly:       "This action is only available to the moderator.",
		Help:            "Press Begin, send your photos, then confirm to pass them on.",
		BotInfo:         "Registered users: %d\nUptime: %s\nMemory: %s\nGoroutines: %d",

		ButtonBegin:      "Begin",
		ButtonHelp:       "Help",
		ButtonBroadcast:  "Broadcast",
		ButtonBotInfo:    "Bot info",
		ButtonSendNoText: "Send without text",
		ButtonWriteText:  "Write text",
		ButtonChangeText: "Change text",
	}
}

// Load reads overrides from path on top of the defaults. A missing
// path is not an error; the defaults are used as-is.
func Load(path string) (Messages, error) {
	m := Defaults()

	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("read messages file: %w", err)
	}

	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse messages file: %w", err)
	}

	return m, nil
}
