package internal

// note: do not change this
const ApplicationName = "redteam"
