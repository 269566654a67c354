package extension

import "fmt"

const (
	// FreePromptLimit is the number of stored prompts on the free tier.
	FreePromptLimit = 5

	// FreeCustomCategoryLimit counts custom categories only; the default
	// "uncategorized" category is excluded.
	FreeCustomCategoryLimit = 1
)

// Decision is the observable outcome of a policy check. A denial always
// carries a reason so the UI can show an upgrade prompt instead of silently
// dropping the action.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanCreatePrompt gates storing a new prompt.
func CanCreatePrompt(isPremium bool, promptCount int) Decision {
	if isPremium {
		return allow()
	}
	if promptCount < FreePromptLimit {
		return allow()
	}
	return deny(fmt.Sprintf("free plan is limited to %d prompts", FreePromptLimit))
}

// CanCreateCategory gates creating a custom category. customCategoryCount
// must not include the default "uncategorized" category.
func CanCreateCategory(isPremium bool, customCategoryCount int) Decision {
	if isPremium {
		return allow()
	}
	if customCategoryCount < FreeCustomCategoryLimit {
		return allow()
	}
	return deny(fmt.Sprintf("free plan is limited to %d custom category", FreeCustomCategoryLimit))
}

// Favorites, copying and history are available on every tier.

func CanUseFavorites() Decision {
	return allow()
}

func CanCopyPrompt() Decision {
	return allow()
}

func CanViewHistory() Decision {
	return allow()
}
