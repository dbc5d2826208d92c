package cmd

import (
	"errors"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/icco/sc8850/internal/audio"
	"github.com/icco/sc8850/internal/config"
	"github.com/icco/sc8850/internal/logging"
	"github.com/icco/sc8850/internal/transport"
)

// resolveConfig layers defaults, the config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	fs := cmd.Flags()

	path, optional := flags.configPath, false
	if !fs.Changed("config") {
		path, optional = config.DefaultPath(), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return cfg, fault.Wrap(err, fmsg.WithDesc("load config", "Could not load the config file "+path+"."))
	}

	if fs.Changed("device") {
		cfg.Device = flags.device
	}
	if fs.Changed("columns") {
		cfg.Columns = flags.columns
	}
	if fs.Changed("catalogue") {
		cfg.Catalogue = flags.catalogue
	}
	if fs.Changed("pc-base") {
		cfg.ProgramBase = flags.pcBase
	}
	if fs.Changed("repeat") {
		cfg.Repeat = flags.repeat
	}
	if fs.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if fs.Changed("preview") {
		cfg.Preview = flags.preview
	}
	if fs.Changed("record") {
		cfg.Record = flags.record
	}

	return cfg, cfg.Validate()
}

// openPort opens the hardware output by index.
var openPort = func(index int) (transport.Transport, string, error) {
	p, err := transport.OpenPort(index)
	if err != nil {
		return nil, "", err
	}
	return p, p.String(), nil
}

// session is the logger and output chain shared by every command.
type session struct {
	cfg     config.Config
	log     *logrus.Entry
	out     transport.Transport
	outName string
	logFile io.Closer
}

func openSession(cfg config.Config) (*session, error) {
	log, logFile, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log, logFile: logFile}

	if err := s.openOutput(); err != nil {
		_ = logFile.Close()
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"output":  s.outName,
		"preview": cfg.Preview,
		"record":  cfg.Record,
	}).Info("session started")
	return s, nil
}

// openOutput builds port (or dry-run log), then logging, preview synth and
// recorder around it.
func (s *session) openOutput() error {
	var out transport.Transport
	if flags.dryRun {
		out = transport.NewLog(s.log)
		s.outName = "dry run"
	} else {
		port, name, err := openPort(s.cfg.Device)
		if err != nil {
			return err
		}
		out = port
		s.outName = name
	}
	out = transport.WithLogging(out, s.log)

	if s.cfg.Preview {
		synth, err := audio.NewSynth()
		if err != nil {
			_ = out.Close()
			return fault.Wrap(err, fmsg.WithDesc("open audio", "Could not open the audio device for --preview."))
		}
		out = transport.Multi{out, synth}
		s.outName += " + preview"
	}

	if s.cfg.Record != "" {
		out = transport.NewRecorder(out, s.cfg.Record)
	}

	s.out = out
	return nil
}

// Close flushes the output chain (and the recording) and the log file.
func (s *session) Close() error {
	err := s.out.Close()
	if err != nil {
		s.log.WithError(err).Error("closing output")
	}
	s.log.Info("session ended")
	return errors.Join(err, s.logFile.Close())
}
