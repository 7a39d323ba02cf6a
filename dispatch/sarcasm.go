package dispatch

import "math/rand"

// messageSet holds the copy for one break type, one slice per event kind.
type messageSet struct {
	breakStarted    []string
	welcomeBack     []string
	overtimeWarning []string
	limitReached    []string
	cancelled       []string
}

var wcMessages = messageSet{
	welcomeBack:     []string{"🧻 Welcome back! You survived 😌", "🧻 Mission accomplished. Hands washed? 👀"},
	breakStarted:    []string{"🧻 Bathroom run initiated… Godspeed 🚽", "🧻 May your trip be quick and successful 💩✨"},
	overtimeWarning: []string{"🧻 You okay in there? It's been a while 👀", "🧻 This is becoming a Netflix episode."},
	limitReached:    []string{"🛑 That's your limit for wc today.", "🛑 You've used all your wc breaks."},
	cancelled:       []string{"❌ Wc break cancelled!", "❌ Bathroom trip erased."},
}

var bwcMessages = messageSet{
	welcomeBack:     []string{"💩 You made it out alive 😤", "💩 Respect. That was a big one."},
	breakStarted:    []string{"💩 Boss battle started. Good luck.", "💩 Entering the danger zone 🚽⚔️"},
	overtimeWarning: []string{"💩 That battle is still going?!", "💩 Need backup in there?"},
	limitReached:    []string{"🛑 Enough battles for today!", "🛑 Your quota of big ones is met."},
	cancelled:       []string{"❌ Battle cancelled!", "❌ The dungeon is sealed."},
}

var cyMessages = messageSet{
	welcomeBack:     []string{"🚬 You're back! Smelling like determination 💨", "🚬 Nicotine acquired. Brain rebooted."},
	breakStarted:    []string{"🚬 Smoke break activated. Be cool 😎", "🚬 Go get that nicotine buff."},
	overtimeWarning: []string{"🚬 That's a long cigarette… 👀", "🚬 You growing tobacco out there?"},
	limitReached:    []string{"🛑 Enough smokes for today!", "🛑 Your daily puff quota is done."},
	cancelled:       []string{"❌ Smoke break cancelled!", "❌ The cigarette is out."},
}

var cfMessages = messageSet{
	welcomeBack:     []string{"🍽️ Welcome back, fully fueled 🔥", "🍽️ That food did you good 😌"},
	breakStarted:    []string{"🍽️ Food quest started. Go eat like a king 👑", "🍽️ Deploying stomach protocol."},
	overtimeWarning: []string{"🍽️ That's a 5-course meal now 👀", "🍽️ Did you order dessert too?"},
	limitReached:    []string{"🛑 That's enough food for today, champ 😆", "🛑 You've officially eaten your way to the limit."},
	cancelled:       []string{"❌ Food break cancelled. The meal never existed 👻", "❌ Calories deleted."},
}

var messagesByCode = map[string]messageSet{
	"wc":   wcMessages,
	"bwc":  bwcMessages,
	"cy":   cyMessages,
	"cf+1": cfMessages,
	"cf+2": cfMessages,
	"cf+3": cfMessages,
}

var invalidCodeMessages = []string{
	"❓ Bro… that is not even close 😂 Try: wc, cy, bwc, cf+1, cf+2, cf+3",
	"❓ I admire the confidence, but that code is wrong 😏",
	"❓ That's not a break code — that's a cry for help 😆",
}

var noActiveBreakMessages = []string{
	"👀 You can't come back if you never left.",
	"🤔 You're not on a break right now, chief.",
	"🧙 You can't end a spell you never cast.",
	"📡 No break signal detected.",
	"🕵️ I checked everywhere… no active break found.",
}

func pick(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[rand.Intn(len(messages))]
}

func pickForCode(code string, kind string) string {
	set, ok := messagesByCode[code]
	if !ok {
		return pick(invalidCodeMessages)
	}
	switch kind {
	case "breakStarted":
		return pick(set.breakStarted)
	case "welcomeBack":
		return pick(set.welcomeBack)
	case "overtimeWarning":
		return pick(set.overtimeWarning)
	case "limitReached":
		return pick(set.limitReached)
	case "cancelled":
		return pick(set.cancelled)
	}
	return ""
}
