package app

// NamedFlagSetOptions is implemented by the options of every command.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets of the options, grouped by section.
	Flags() NamedFlagSets

	// Complete fills in fields derived from others after flags and config are read.
	Complete() error

	// Validate reports every invalid option, joined into one error.
	Validate() error
}
