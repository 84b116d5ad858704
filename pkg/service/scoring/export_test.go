package scoring

// ParseResponse exposes the AI response validation for tests
var ParseResponse = parseResponse
