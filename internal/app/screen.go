package app

// Screen is the view the interactive client is showing. Exactly one is
// active at a time.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenUpload
	ScreenDashboard
)

var screenNames = [...]string{
	ScreenLogin:     "login",
	ScreenRegister:  "register",
	ScreenUpload:    "upload",
	ScreenDashboard: "dashboard",
}

func (s Screen) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return screenNames[s]
}

// Valid reports whether s is one of the four screens
func (s Screen) Valid() bool {
	return s >= ScreenLogin && s <= ScreenDashboard
}
