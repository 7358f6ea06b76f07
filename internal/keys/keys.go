package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh / sync
	Refresh key.Binding

	// Board moves
	MoveLeft  key.Binding
	MoveRight key.Binding

	// Message actions
	Star    key.Binding
	Delete  key.Binding
	Compose key.Binding
	Snooze  key.Binding

	// Folder cycling and filters
	CycleFolder  key.Binding
	FilterRead   key.Binding
	FilterStar   key.Binding
	FilterAttach key.Binding
	ClearFilter  key.Binding

	// Board / column management
	Columns      key.Binding
	EditColumn   key.Binding
	DeleteColumn key.Binding

	// Mailbox accounts
	CycleMailbox   key.Binding
	ConnectMailbox key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync mailbox"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move to prev column"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move to next column"),
		),
		Star: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "star/unstar"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compose"),
		),
		Snooze: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "snooze"),
		),
		CycleFolder: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle folder"),
		),
		FilterRead: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle unread filter"),
		),
		FilterStar: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle starred filter"),
		),
		FilterAttach: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle attachment filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		Columns: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "new column"),
		),
		EditColumn: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "edit column"),
		),
		DeleteColumn: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete column"),
		),
		CycleMailbox: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next mailbox"),
		),
		ConnectMailbox: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "connect mailbox"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Left, k.Right,
		k.Select, k.Back, k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit, k.Help},
		{k.Search, k.CycleFolder, k.FilterRead, k.FilterStar, k.FilterAttach, k.ClearFilter},
		{k.Star, k.Delete, k.Compose, k.Snooze, k.Refresh},
		{k.MoveLeft, k.MoveRight, k.Columns, k.EditColumn, k.DeleteColumn},
		{k.CycleMailbox, k.ConnectMailbox},
	}
}
