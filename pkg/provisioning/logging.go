package provisioning

import "github.com/sirupsen/logrus"

func nopEntry() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func rowFields(p Pipeline, line int, key string) logrus.Fields {
	return logrus.Fields{
		"pipeline": string(p),
		"line":     line,
		"key":      key,
	}
}
