package game

import "fmt"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
)

// OutcomeKind is how an ended session finished.
type OutcomeKind string

const (
	OutcomeNone           OutcomeKind = ""
	OutcomeVictory        OutcomeKind = "victory"
	OutcomeAIVictory      OutcomeKind = "ai_victory"
	OutcomeHealthDepleted OutcomeKind = "health_depleted"
	OutcomeDetected       OutcomeKind = "detected"
	OutcomeTimeOut        OutcomeKind = "time_out"
)

// Message is the player-facing text for the outcome. winner names the AI
// for OutcomeAIVictory.
func (k OutcomeKind) Message(winner string) string {
	switch k {
	case OutcomeVictory:
		return "Mission accomplished! You reached your objective before anyone else."
	case OutcomeAIVictory:
		if winner == "" {
			winner = "An opponent"
		}
		return fmt.Sprintf("%s completed their objective first. Better luck next time.", winner)
	case OutcomeHealthDepleted:
		return "Your systems have been taken down. You can't continue."
	case OutcomeDetected:
		return "You've been fully detected. Your operation is over."
	case OutcomeTimeOut:
		return "Time's up. The story ran out before you reached your objective."
	}
	return ""
}

func (k OutcomeKind) Won() bool {
	return k == OutcomeVictory
}
