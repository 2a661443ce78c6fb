package main

import (
	"acgfun-checkin/cmd/checkin/commands"
	"acgfun-checkin/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
