package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, invalid config)
	ExitDataError   = 3 // Data error (malformed corpus, missing fold)
	ExitNoDocuments = 4 // Nothing to process (empty split, no abstract)
)
