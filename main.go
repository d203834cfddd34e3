package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"fmreceiver/config"
	"fmreceiver/display"
	"fmreceiver/radio"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/platforms/raspi"
)

func main() {
	settingsPath := flag.String("config", "receiver.yaml", "path to the settings file")
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		log.Fatalln(err)
	}

	out := settings.Logging.Output()
	defer out.Close()
	logger := log.New(out, "", log.LstdFlags|log.Lshortfile)

	adaptor := raspi.NewAdaptor()

	radioConfig := settings.DriverConfig(logger.Printf)
	rdio, err := radio.NewSi4735Driver(adaptor, radioConfig, settings.I2COptions()...)
	if err != nil {
		logger.Fatalln(err)
	}

	var devices []gobot.Device
	if radioConfig.ReadySignal != nil {
		// INT is active low and pulses once per CTS or STC
		irq := gpio.NewButtonDriver(adaptor, settings.Receiver.InterruptPin, settings.InterruptInterval())
		irq.DefaultState = 1
		if err = irq.On(gpio.ButtonPush, func(interface{}) {
			radioConfig.ReadySignal.Notify()
		}); err != nil {
			logger.Fatalln(err)
		}
		devices = append(devices, irq)
	}
	devices = append(devices, rdio)

	var lcd *display.SunFounderLCD1602Driver
	if settings.Display.Enabled {
		if lcd, err = display.NewLCD1602Driver(adaptor, settings.DisplayOptions()...); err != nil {
			logger.Fatalln(err)
		}
		devices = append(devices, lcd)
	}

	showStation := func() {
		st := rdio.State()
		snap := rdio.RDS()
		freq := radio.FormatFrequency(st.Mode, st.Frequency)
		if st.Mode == radio.ModeSSB {
			freq += " " + st.Sideband.String()
		}

		if lcd == nil {
			logger.Printf("%s %q %q\n", freq, snap.StationName, snap.RadioText())
			return
		}
		if err := lcd.DisplayStation(freq, snap.StationName, snap.RadioText()); err != nil {
			logger.Println(err)
		}
	}

	work := func() {
		if info, err := rdio.FirmwareInfo(); err == nil {
			logger.Printf("Receiver ready: %s\n", info)
		}
		showStation()

		gobot.Every(settings.RDSPollInterval(), func() {
			if rdio.Mode() != radio.ModeFM {
				return
			}
			_, err := rdio.PollRDS()
			if err != nil && !errors.Is(err, radio.ErrUncorrectableBlock) {
				logger.Println(err)
			}
		})

		gobot.Every(1*time.Second, showStation)
	}

	robot := gobot.NewRobot("Si4735 receiver",
		[]gobot.Connection{adaptor},
		devices,
		work,
	)

	if err = robot.Start(); err != nil {
		logger.Fatalln(err)
	}
}
