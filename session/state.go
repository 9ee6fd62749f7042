package session

import (
	"encoding/json"
	"time"

	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/spritestore"
	"github.com/tibia-tools/assets/thing"
)

// State is the snapshot a session operation returns. Its value fields
// are copies of the session's own; Things and Sprites are pointers
// shared with the session, so the table and store they point at are
// not copied.
type State struct {
	Loaded bool

	DatFilePath     string
	SprFilePath     string
	ServerItemsPath string
	OtfiPath        string

	ClientVersion int
	DatSignature  uint32
	SprSignature  uint32
	Features      thing.Features

	IsTemporary bool
	Changed     bool
	DisplayName string

	Things  *dat.Table
	Sprites *spritestore.Store
}

func factoryState() State {
	return State{}
}

// recoveryDescriptor is the small JSON document persisted on load and
// removed on clean unload. Its presence on startup signals the previous
// session did not close cleanly.
type recoveryDescriptor struct {
	DatFilePath     string `json:"datFilePath"`
	SprFilePath     string `json:"sprFilePath"`
	VersionValue    int    `json:"versionValue"`
	ServerItemsPath string `json:"serverItemsPath,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

func newRecoveryDescriptor(s State) recoveryDescriptor {
	return recoveryDescriptor{
		DatFilePath:     s.DatFilePath,
		SprFilePath:     s.SprFilePath,
		VersionValue:    s.ClientVersion,
		ServerItemsPath: s.ServerItemsPath,
		Timestamp:       time.Now().Unix(),
	}
}

func (d recoveryDescriptor) marshal() ([]byte, error) {
	return json.Marshal(d)
}
