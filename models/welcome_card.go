package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxWelcomeCards is how many cards one circle may show.
const MaxWelcomeCards = 10

// WelcomeCard is a flip card on a circle's landing page.
type WelcomeCard struct {
	ID              string `json:"id"`
	CircleID        string `json:"circle_id"`
	Position        int    `json:"position"`
	FrontTitle      string `json:"front_title"`
	FrontImage      string `json:"front_image"`
	BackTitle       string `json:"back_title"`
	BackDescription string `json:"back_description"`
}

type WelcomeCardInput struct {
	FrontTitle      string `json:"front_title"`
	FrontImage      string `json:"front_image"`
	BackTitle       string `json:"back_title"`
	BackDescription string `json:"back_description"`
}

// ReplaceWelcomeCardsRequest replaces every card of a circle.
type ReplaceWelcomeCardsRequest struct {
	Cards []WelcomeCardInput `json:"cards"`
}

func (r *ReplaceWelcomeCardsRequest) Validate() error {
	if len(r.Cards) > MaxWelcomeCards {
		return fmt.Errorf("at most %d welcome cards are allowed", MaxWelcomeCards)
	}
	for i := range r.Cards {
		c := &r.Cards[i]
		c.FrontTitle = strings.TrimSpace(c.FrontTitle)
		c.BackTitle = strings.TrimSpace(c.BackTitle)
		c.FrontImage = strings.TrimSpace(c.FrontImage)
		c.BackDescription = strings.TrimSpace(c.BackDescription)
		if n := utf8.RuneCountInString(c.FrontTitle); n < 1 || n > 50 {
			return fmt.Errorf("card %d: front title must be between 1 and 50 characters", i+1)
		}
		if n := utf8.RuneCountInString(c.BackTitle); n < 1 || n > 50 {
			return fmt.Errorf("card %d: back title must be between 1 and 50 characters", i+1)
		}
		if utf8.RuneCountInString(c.BackDescription) > 500 {
			return fmt.Errorf("card %d: back description must be at most 500 characters", i+1)
		}
	}
	return nil
}
