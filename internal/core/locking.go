package core

import "fmt"

// Adjustments bypass month locks; everything else needs an unlocked month.

func CanCreate(isAdjustment, monthLocked bool) bool {
	return isAdjustment || !monthLocked
}

func CanEdit(isAdjustment, monthLocked bool) bool {
	return isAdjustment || !monthLocked
}

func CanDelete(isAdjustment, monthLocked bool) bool {
	return isAdjustment || !monthLocked
}

func AlreadyLockedMessage(ym YearMonth) string {
	return fmt.Sprintf("%s is already locked.", ym)
}

func LockedMessage(ym YearMonth) string {
	return fmt.Sprintf("%s has been locked.", ym)
}

func NotLockedMessage(ym YearMonth) string {
	return fmt.Sprintf("%s is not locked.", ym)
}

func UnlockedMessage(ym YearMonth) string {
	return fmt.Sprintf("%s has been unlocked.", ym)
}
