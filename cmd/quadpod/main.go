package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup SetupCommand `command:"setup" description:"Scan for the robot and record its home pose"`
	Run   RunCommand   `command:"run" description:"Stand up and run the balance/trot/orient controller"`
	Info  InfoCommand  `command:"info" description:"Show the servos the robot answers on"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Quadpod - quadruped robot kit controller"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
