package assets

import "embed"

//go:embed *.wav
var AudioFS embed.FS

// NotificationSound is the file played when a stage is reached.
const NotificationSound = "notify.wav"

// Sound returns the bytes of the notification sound.
func Sound() ([]byte, error) {
	return AudioFS.ReadFile(NotificationSound)
}
