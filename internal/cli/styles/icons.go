package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconVersion   = "\uf02b" // tag
	IconGitBranch = "\ue725" // git branch
	IconCalendar  = "\uf073" // calendar
	IconGithub    = "\uf09b" // github
	IconGo        = "\ue627" // go gopher
	IconArrow     = "\uf061" // arrow right

	IconCheck   = "\uf00c" // check
	IconX       = "\uf00d" // x
	IconWarning = "\uf071" // warning
	IconInfo    = "\uf05a" // info
	IconRocket  = "\uf135" // rocket
	IconChip    = "\uf2db" // microchip
	IconRestart = "\uf01e" // rotate-right
	IconClock   = "\uf017" // clock
	IconStop    = "\uf04d" // stop (cancelled)
)
