package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/charue808/eikogames/internal/game"
)

// textValidators back the custom binding tags. Each returns the trimmed
// value or an error whose message is shown to the client.
var textValidators = map[string]func(string) (string, error){
	"name":   game.ValidateName,
	"answer": game.ValidateAnswer,
}

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, validate := range textValidators {
			_ = engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				_, err := validate(fl.Field().String())
				return err == nil
			})
		}
	})
}
