package utils

// REVISION is reported in every response envelope.
const REVISION = "1.0.0"
