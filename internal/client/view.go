package client

// Screen is the coarse UI state.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenSignup
	ScreenItems
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenSignup:
		return "signup"
	case ScreenItems:
		return "items"
	default:
		return "unknown"
	}
}

// Authenticated reports whether s is the item-management screen.
func (s Screen) Authenticated() bool { return s == ScreenItems }

// Region is a toggleable part of the UI.
type Region string

const (
	RegionLoginForm    Region = "loginForm"
	RegionSignupForm   Region = "signupForm"
	RegionAuthSection  Region = "authSection"
	RegionItemSection  Region = "itemSection"
	RegionLoginButton  Region = "loginBtn"
	RegionSignupButton Region = "signupBtn"
	RegionLogoutButton Region = "logoutBtn"
)

var AllRegions = []Region{
	RegionLoginForm,
	RegionSignupForm,
	RegionAuthSection,
	RegionItemSection,
	RegionLoginButton,
	RegionSignupButton,
	RegionLogoutButton,
}

// Visible reports whether r is shown on screen s.
// Exactly one of auth/item section is visible; inside the auth section exactly one form is.
func (s Screen) Visible(r Region) bool {
	auth := !s.Authenticated()
	switch r {
	case RegionAuthSection, RegionLoginButton, RegionSignupButton:
		return auth
	case RegionItemSection, RegionLogoutButton:
		return !auth
	case RegionLoginForm:
		return s == ScreenLogin
	case RegionSignupForm:
		return s == ScreenSignup
	default:
		return false
	}
}

// Visibility returns the visible flag of every region.
func (s Screen) Visibility() map[Region]bool {
	out := make(map[Region]bool, len(AllRegions))
	for _, r := range AllRegions {
		out[r] = s.Visible(r)
	}
	return out
}
