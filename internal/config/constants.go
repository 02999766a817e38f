package config

// DefaultDatabasePath is the default path for the circulation database.
// The task queue keeps its own file next to it.
const DefaultDatabasePath = "./library.db"
