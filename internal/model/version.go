package model

// Version is the released version, stamped into --version output and the
// update check.
const Version = "0.3.1"
