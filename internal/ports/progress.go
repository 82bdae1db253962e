package ports

// Progress reports conversion progress to the user.
type Progress interface {
	// Start begins a new display over total units of work.
	Start(total int)

	// Describe sets the text shown next to the bar.
	Describe(msg string)

	// Increment marks one unit done.
	Increment()

	// Finish ends the display.
	Finish()
}
