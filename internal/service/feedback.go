package service

import (
	"github.com/usb-cleaner-box/ucb/internal/hw"
	"github.com/usb-cleaner-box/ucb/internal/model"
)

const (
	promptAnswers  = "NON         OUI"
	promptRepeat   = "Recommencer?"
	faultLine1     = "Erreur System"
	faultLine2     = "Redemarrage..."
	goodbyeLine1   = "Au revoir"
	goodbyeLine2   = "Retirer cle USB"
	startupLine1   = "BOITIER"
	startupLine2   = "NETTOYAGE USB"
	waitingLine1   = "Inserer une"
	waitingLine2   = "cle USB..."
	detectedLine1  = "USB detectee"
	runningLine1   = "Traitement"
	runningLine2   = "En cours..."
	noWorkersLine1 = "No workers"
	noWorkersLine2 = "available"
)

// feedback is what the box shows for an outcome.
type feedback struct {
	line1 string
	line2 string
	color hw.Color
	cue   hw.Cue
}

func feedbackFor(o model.Outcome) feedback {
	switch o {
	case model.OutcomeThreat:
		return feedback{"THREAT", "DETECTED!", hw.ColorRed, hw.CueFailure}
	case model.OutcomeWarning:
		return feedback{"WARNING", "Check results", hw.ColorOrange, hw.CueWarning}
	case model.OutcomeError:
		return feedback{"ERROR", "Worker failed", hw.ColorRed, hw.CueFailure}
	default:
		return feedback{"Completed", "Success!", hw.ColorGreen, hw.CueSuccess}
	}
}
