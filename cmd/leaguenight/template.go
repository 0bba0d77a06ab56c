package main

const configTemplate = `# League Night Season Configuration
# ================================
# This file describes the season, the teams and how each session night is
# laid out. Runtime settings (store, listen address, log level) come from
# LEAGUENIGHT_* environment variables or a .env file.

# Season defines when week 1 is played. Week N is played 7*(N-1) days later.
season:
  name: "Fall League Night"
  epoch: "2026-09-08"
  timezone: "America/New_York"

# Teams imported by 'leaguenight team sync'. Ids are optional; missing ids
# are generated. Each session seats exactly 6 teams.
teams:
  - name: Aces
  - name: Blockers
  - name: Cannons
  - name: Diggers
  - name: Eagles
  - name: Falcons

# Pool labels. Period 1 splits the roster into two random pools of three.
# Period 2 reseeds the top three by period-1 points into the premier pool
# and the rest into the secondary pool.
pools:
  period1: ["Pool A", "Pool B"]
  premier: Premier
  secondary: Secondary

# Each period has three time slots. Both pools play one match in each slot.
# Times use 24-hour format in the season's time zone.
time_slots:
  period1: ["18:00", "18:25", "18:50"]
  period2: ["19:15", "19:40", "20:05"]

match_minutes: 25

# Score submissions for the same match within debounce_ms replace each
# other; only the last one is written. auto_advance schedules period 2 as
# soon as every period-1 match is completed.
scoring:
  debounce_ms: 3000
  auto_advance: false

# Ids allowed to edit any score besides the refereeing team.
admins: []

# Fix the pool draw for reproducible schedules. Remove for a fresh draw
# every time the process starts.
# seed: 42
`
