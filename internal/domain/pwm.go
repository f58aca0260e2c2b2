package domain

// pwmTable mirrors the firmware's speed-to-duty mapping. The host never
// sends PWM values; the table exists so status replies can be checked and
// logged against the firmware contract.
var pwmTable = [SpeedMax - SpeedMin + 1]int{51, 89, 127, 191, 255}

// PWMForSpeed returns the duty value the firmware applies for a speed in
// [SpeedMin, SpeedMax], and false for anything outside that range.
func PWMForSpeed(speed int) (int, bool) {
	if speed < SpeedMin || speed > SpeedMax {
		return 0, false
	}
	return pwmTable[speed-SpeedMin], true
}
