package notifications

import (
	"fmt"
	"html"
)

func WelcomeEmail(name string) (string, string) {
	return "Welcome to QuizFoundry!",
		fmt.Sprintf("<h1>Welcome, %s!</h1><p>Your account is ready. Finish onboarding to start generating quizzes.</p>", html.EscapeString(name))
}

func PasswordResetEmail(resetLink string) (string, string) {
	return "Your Password Reset Link",
		fmt.Sprintf("<h1>Password Reset</h1><p>Click the link below to reset your password. This link is valid for 15 minutes.</p><p><a href='%s'>Reset Password</a></p>", html.EscapeString(resetLink))
}

func PasswordChangedEmail(name string) (string, string) {
	return "Your password was changed",
		fmt.Sprintf("<p>Hi %s,</p><p>Your QuizFoundry password was just changed and all devices were signed out. If this wasn't you, reset your password immediately.</p>", html.EscapeString(name))
}
