package sim

// Statistics accumulates customer outcomes over a run. Only the Simulator
// that owns it increments it.
type Statistics struct {
	Arrived     int64 // arrival draws, accepted or not
	Accepted    int64 // arrivals that joined the queue
	Fulfilled   int64 // customers whose service completed
	Unfulfilled int64 // arrivals rejected because the queue was full
	TimedOut    int64 // customers who abandoned the queue
}

// RecordAccepted counts an arrival that joined the queue.
func (s *Statistics) RecordAccepted() {
	s.Arrived++
	s.Accepted++
}

// RecordRejected counts an arrival turned away at a full queue.
func (s *Statistics) RecordRejected() {
	s.Arrived++
	s.Unfulfilled++
}

// RecordFulfilled counts n completed services.
func (s *Statistics) RecordFulfilled(n int) {
	s.Fulfilled += int64(n)
}

// RecordTimedOut counts n abandonments.
func (s *Statistics) RecordTimedOut(n int) {
	s.TimedOut += int64(n)
}

// Resolved returns the number of accepted customers whose fate is known.
func (s *Statistics) Resolved() int64 {
	return s.Fulfilled + s.TimedOut
}
