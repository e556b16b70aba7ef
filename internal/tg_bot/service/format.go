package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
)

const helpText = "I track your transit in your area and send you notifications with its current location.\n" +
	"These commands are supported:\n" +
	"/help - display this list\n" +
	"/start - start tracking your transit\n" +
	"/cancel - cancel the tracking"

func textUnhandled() string {
	return "Unable to handle the message. Type /help to see the usage."
}

func textAskCity() string {
	return constant.EMOJI_BEGINNER + " Let's start tracking a transit " + constant.EMOJI_BUS + constant.EMOJI_METRO +
		"!\n\nWhat city do you live in?"
}

func textAskCityAgain() string {
	return constant.EMOJI_CROSS_MARK + " Please, send me the city you live in, so i can start tracking."
}

func textAskAddress(city string) string {
	return fmt.Sprintf("Awesome so you live in <b>%s</b> %s!\n\n"+
		"What is your <b>street address</b> so i can search for nearby transit stops?\n"+
		"You can also send me a <b>location</b> %s instead!", html.EscapeString(city), constant.EMOJI_CITY, constant.EMOJI_PIN)
}

func textAskAddressAgain() string {
	return constant.EMOJI_CROSS_MARK + " Please, send me your address or a location, so i can start tracking."
}

func textChangeAddress() string {
	return "Ok, send me the new <b>street address</b> or a <b>location</b> " + constant.EMOJI_PIN + "."
}

func textStations(address, city string, known bool) string {
	head := "Thank you! So your address is:"
	if known {
		head = "I found your last used address:"
	}
	return fmt.Sprintf("%s\n<b>%s, %s %s</b>\n\n"+
		"Now please select which transit station you want to track %s.\n"+
		"Here are the nearby transit stations:",
		head, html.EscapeString(address), html.EscapeString(city), constant.EMOJI_PIN, constant.EMOJI_EYES)
}

func textNoStations() string {
	return constant.EMOJI_WORRIED_FACE + " Unfortunately, no transit stations were found near this address. Please /start over!"
}

func textNoDepartures() string {
	return constant.EMOJI_WORRIED_FACE + " Unfortunately, no transit departures were found from this station at this time. Please /start over!"
}

func textUpstreamFailure() string {
	return constant.EMOJI_WARNING + " I could not reach the transit or map service right now. Please send that again."
}

func textAddressNotFound() string {
	return constant.EMOJI_CROSS_MARK + " I could not find this address. Please check it and send it again."
}

func textExpired() string {
	return constant.EMOJI_WARNING + " This selection is no longer available. Please /start over!"
}

func textAmbiguousStation() string {
	return "Several stations match this name, please pick one of the buttons."
}

func textAmbiguousLine() string {
	return "Several transits match this name, please pick one of the buttons."
}

func textTrackingActive() string {
	return "A transit is already being tracked. Use /cancel to stop it first."
}

func textCancelled() string {
	return constant.EMOJI_PROHIBITED + " Cancelled! You can start over using /start."
}

func textAskInterval() string {
	return "Select how many <b>minutes</b> between each update:"
}

func textAskIntervalAgain() string {
	return constant.EMOJI_CROSS_MARK + " Please pick one of the buttons or send a whole number of minutes from 1 to 60."
}

func textTimerStarted(minutes int) string {
	return fmt.Sprintf("The timer is going to update every <b>%d</b> minute(s)!", minutes)
}

func textSelectLine() string {
	return "Select a transit:"
}

// textDepartures renders the departure overview of a station. Delays are shown in minutes.
func textDepartures(station string, deps []models.Departure) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Infos for selected station (+ mins delay): <b>%s</b>\n", constant.EMOJI_BUS_STOP, html.EscapeString(station))
	for _, dep := range deps {
		sb.WriteString("\n--------------------\n")
		fmt.Fprintf(&sb, "<b>%s</b>, to <b>%s</b> on <b>%s</b>",
			html.EscapeString(dep.Line.Name), html.EscapeString(dep.Line.Direction), dep.Planned.Format("15:04"))
		if delay := dep.DelayMinutes(); delay != 0 {
			fmt.Fprintf(&sb, " (%+d)", delay)
		}
	}
	sb.WriteString("\n--------------------")
	return sb.String()
}

func textProgress(line models.Line, minutes int) string {
	if minutes == 0 {
		return fmt.Sprintf("%s Your transit: <b>%s</b> %s should arrive now!",
			constant.EMOJI_BELL, html.EscapeString(line.Key()), constant.EMOJI_BUS)
	}
	return fmt.Sprintf("%s Your transit: <b>%s</b> %s arrives in <b>%d</b> minutes %s!",
		constant.EMOJI_BELL, html.EscapeString(line.Key()), constant.EMOJI_BUS, minutes, constant.EMOJI_HOURGLASS)
}

func textPositionCaption() string {
	return "Current position of the transit:"
}

func textDeparting(line models.Line, station string) string {
	return fmt.Sprintf("%s Your transit: <b>%s</b> %s is departing from <b>%s</b>!",
		constant.EMOJI_BELL, html.EscapeString(line.Key()), constant.EMOJI_BUS, html.EscapeString(station))
}

func textLineGone(line models.Line, station string) string {
	return fmt.Sprintf("%s Your transit: <b>%s</b> %s is no longer listed at <b>%s</b>, it has most likely departed.",
		constant.EMOJI_BELL, html.EscapeString(line.Key()), constant.EMOJI_BUS, html.EscapeString(station))
}
