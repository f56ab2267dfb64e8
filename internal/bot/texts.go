package bot

// Fixed replies. Everything is sent as HTML.
const (
	textWelcome        = "Welcome! Your token is: <code>%s</code> Use /check to verify."
	textNotConnected   = "You haven't connected yet. Your new token: <code>%s</code>.\n\nUse /check to verify."
	textNoValidToken   = "You don't have a valid token. Your new token: <code>%s</code>.\n\nUse /check to verify."
	textTokenStatus    = "Your token: <code>%s</code> is valid. Use it to access the features.\n\nUser Details:\n- ID: %d\n- First Name: %s\n- Last Name: %s\n- Username: %s\n\nToken Expiration Time: %s"
	textAlreadyValid   = "You have already provided a valid token. Use /check to verify."
	textTokenAccepted  = "Token accepted! Use /check to verify."
	textTokenInvalid   = "Invalid token. Please try again."
	textTokenUsage     = "Please provide a token using /token {your_token}."
	textTokenRequired  = "Please provide a valid token using /token {your_token}."
	textStopped        = "Token verification process stopped. Use /start to restart."
	textInvalidLink    = "This link is invalid. Ask the sender for a new one."
	textPleaseWait     = "Please wait..."
	textWentWrong      = "Something went wrong..!"
	textNothingFound   = "The files behind this link are no longer available."
	textWait           = "<b>Processing ...</b>"
	textUsers          = "%d users are using this bot"
	textReplyError     = "<code>Use this command as a replay to any telegram message with out any spaces.</code>"
	textBroadcasting   = "<i>Broadcasting Message.. This will Take Some Time</i>"
	textBroadcastDone  = "<b><u>Broadcast Completed</u>\n\nTotal Users: <code>%d</code>\nSuccessful: <code>%d</code>\nBlocked Users: <code>%d</code>\nDeleted Accounts: <code>%d</code>\nUnsuccessful: <code>%d</code></b>"
	textBroadcastAbort = "\n\n<i>Stopped early: %s</i>"
)

// Button labels.
const (
	btnAbout    = "😊 About Me"
	btnUnlock   = "🔒 unlock"
	btnStop     = "Stop Process"
	btnJoin     = "Join Channel"
	btnTryAgain = "Try Again"
	btnClose    = "🔒 Close"
)
