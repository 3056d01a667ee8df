package model

// Version is the tracelens release version.
const Version = "0.3.0"
