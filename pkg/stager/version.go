package stager

// Version is the release of the stager module and CLI.
const Version = "0.1.0"
