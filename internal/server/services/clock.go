package services

import "time"

// timeNow is a test seam for the current time.
var timeNow = time.Now
