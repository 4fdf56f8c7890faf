package health

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// Service encapsulates health-related checks.
type Service struct {
	sessions             SessionCounter
	generationConfigured bool
}

// NewService constructs a new health service.
func NewService(sessions SessionCounter, generationConfigured bool) *Service {
	return &Service{sessions: sessions, generationConfigured: generationConfigured}
}

// Status is the health payload.
type Status struct {
	OK                   bool `json:"ok"`
	GenerationConfigured bool `json:"generationConfigured"`
	Sessions             int  `json:"sessions"`
}

// Status reports liveness. A missing API key does not make the process
// unhealthy; it is reported alongside.
func (s *Service) Status() Status {
	st := Status{OK: true, GenerationConfigured: s.generationConfigured}
	if s.sessions != nil {
		st.Sessions = s.sessions.Len()
	}
	return st
}
