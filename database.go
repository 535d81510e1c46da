package main

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx

	sspdiag "github.com/dune-daq/sspdiag/pkg"
)

func ConnectToDatabase(user string, password string, host string, database string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, password, host, port, database)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type ChannelMapRow struct {
	Module    int `db:"module"`
	Channel   int `db:"channel"`
	OpChannel int `db:"opchannel"`
}

// getChannelMapFromDB loads the detector geometry mapping valid for this
// run. Channels missing from the table fall back to the default mapping.
func getChannelMapFromDB(db *sqlx.DB, runNumber int) (sspdiag.ChannelMapFunc, error) {
	query := fmt.Sprintf("SELECT module, channel, opchannel FROM OpChannelMap WHERE MinRun <= %d and MaxRun >= %d", runNumber, runNumber)
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, err
	}

	mapping := make(map[int]int)
	for rows.Next() {
		result := ChannelMapRow{}
		if err := rows.StructScan(&result); err != nil {
			return nil, err
		}
		mapping[result.Module<<4|result.Channel] = result.OpChannel
	}

	channelMap := func(module, channel uint16) int {
		if opChannel, ok := mapping[int(module)<<4|int(channel)]; ok {
			return opChannel
		}
		return sspdiag.DefaultChannelMap(module, channel)
	}
	return channelMap, nil
}
