package sqlite

// schemaDDL contains the application schema. Tables are created in
// dependency order with foreign keys declared; enforcement is switched on
// per connection before creation. data_id and session_id use AUTOINCREMENT
// so generated keys are strictly increasing and never reused: readings
// store no timestamp, and the ascending data_id is the temporal order.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS Device (
    device_id INTEGER PRIMARY KEY AUTOINCREMENT,
    device_name TEXT
);

CREATE TABLE IF NOT EXISTS Session (
    session_id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_name TEXT,
    timestamp_start TEXT,
    timestamp_end TEXT,
    location TEXT,
    device_id INTEGER,
    FOREIGN KEY (device_id) REFERENCES Device(device_id)
);

CREATE TABLE IF NOT EXISTS Processed_Sensor_Data (
    data_id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER,
    nitrogen REAL,
    phosphorus REAL,
    potassium REAL,
    pH REAL,
    moisture REAL,
    humidity REAL,
    soil_temperature REAL,
    air_temperature REAL,
    FOREIGN KEY (session_id) REFERENCES Session(session_id)
);
`
